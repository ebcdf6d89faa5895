package parser_test

import (
	"context"
	"fmt"

	"github.com/specvital/jvmtest/pkg/discovery"
	"github.com/specvital/jvmtest/pkg/domain"
	"github.com/specvital/jvmtest/pkg/parser"

	// Register the JUnit 4, JUnit 5 and TestNG classifiers.
	_ "github.com/specvital/jvmtest/pkg/strategies/all"
)

const calculatorTest = `package com.acme;

import org.junit.jupiter.api.Test;

class CalculatorTest {
    @Test
    void adds() {}

    @Test
    void subtracts() {}

    void helper() {}
}
`

func Example() {
	ctx := context.Background()

	idx, _, err := parser.LoadSources(ctx,
		map[string][]byte{"src/test/java/com/acme/CalculatorTest.java": []byte(calculatorTest)},
		parser.WithProject("demo"),
	)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	d := discovery.New()
	d.AddProject("demo", idx)

	domain.Walk(d.Discover(ctx, discovery.Project("demo")), func(t *domain.TestItem) bool {
		fmt.Println(t.Level, t.ID)
		return true
	})
	// Output:
	// package demo@com.acme
	// class demo@com.acme.CalculatorTest
	// method demo@com.acme.CalculatorTest#adds
	// method demo@com.acme.CalculatorTest#subtracts
}

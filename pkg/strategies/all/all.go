// Package all imports all classifier strategies for side-effect registration.
// Usage: _ "github.com/specvital/jvmtest/pkg/strategies/all"
package all

import (
	_ "github.com/specvital/jvmtest/pkg/strategies/junit4"
	_ "github.com/specvital/jvmtest/pkg/strategies/junit5"
	_ "github.com/specvital/jvmtest/pkg/strategies/testng"
)

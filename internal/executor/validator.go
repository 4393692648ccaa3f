package executor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Validate compares an execution result against a block's validation mode and
// expected value. It is pure and never panics: every branch returns a verdict
// and a human-readable message.
func Validate(result *ExecutionResult, mode, expected string) (bool, string) {
	switch mode {
	case "exit":
		expectedCode, err := strconv.Atoi(strings.TrimSpace(expected))
		if err != nil {
			return false, fmt.Sprintf("Invalid expected exit code: %q", expected)
		}
		if result.ExitCode == expectedCode {
			return true, fmt.Sprintf("Exit code matched: %d", expectedCode)
		}
		return false, fmt.Sprintf("Exit code %d != expected %d", result.ExitCode, expectedCode)

	case "contains":
		output := result.Stdout + result.Stderr
		if strings.Contains(output, expected) {
			return true, fmt.Sprintf("Output contains: %q", expected)
		}
		return false, fmt.Sprintf("Output does not contain: %q", expected)

	case "regex":
		re, err := regexp.Compile("(?m)" + expected)
		if err != nil {
			return false, fmt.Sprintf("Invalid regex pattern: %v", err)
		}
		if re.MatchString(result.Stdout + result.Stderr) {
			return true, fmt.Sprintf("Output matches regex: %s", expected)
		}
		return false, fmt.Sprintf("Output does not match regex: %s", expected)

	case "exact":
		output := strings.TrimSpace(result.Stdout + result.Stderr)
		want := strings.TrimSpace(expected)
		if output == want {
			return true, "Output matches exactly"
		}
		return false, fmt.Sprintf("Output does not match exactly.\nExpected:\n%s\nGot:\n%s", want, output)

	default:
		return false, fmt.Sprintf("Unknown validation mode: %s", mode)
	}
}

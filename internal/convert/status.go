// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import "github.com/fatih/color"

// Status line tags. The color package drops the escape codes on its own
// when output is not a terminal or NO_COLOR is set.
var (
	convertedColor = color.New(color.FgGreen)
	skippedColor   = color.New(color.FgCyan)
	failedColor    = color.New(color.FgRed)
	warningColor   = color.New(color.FgYellow)
)

func convertedTag() string { return convertedColor.Sprint("converted:") }
func skippedTag() string   { return skippedColor.Sprint("skipped:") }
func failedTag() string    { return failedColor.Sprint("failed: ") }
func warningTag() string   { return warningColor.Sprint("warning:") }

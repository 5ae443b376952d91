// Package version holds the tool version stamped into every cached record.
package version

// Version is written to the tool_version field of each DailyRecord.
const Version = "0.4.0"

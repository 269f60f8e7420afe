// Package stats aggregates repeated check runs.
//
// Indicator values and run durations are kept in HDR histograms so that
// percentiles stay cheap however many runs are recorded. Indicators start
// with three decimal places of precision. A series whose values outgrow the
// histogram range trades decimal places for range.
package stats

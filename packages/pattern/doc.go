// Package pattern compiles extraction patterns written in the monitoring
// agent's conventions into RE2 regular expressions.
//
// Three forms are accepted:
//   - //re//      the agent's delimited form, delimiters stripped
//   - /re/flags   a JavaScript-style literal; i, s and m map to RE2 flags,
//     g makes a query return every match, u and y are ignored
//   - anything else is used verbatim
package pattern

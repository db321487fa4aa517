// Package diagnostic collects coded warnings and notes produced while a
// session settles its schema and column mapping.
//
// Key capabilities:
//   - Tolerated extra column reports
//   - Missing column reports for nilable or defaulted fields
//   - Nilable field discoveries from introspection retries
//   - Header collisions under loose matching
package diagnostic

// Package shape provides pure transformations of query results.
//
// Every function returns a new Result and leaves its input untouched.
// Row count and row order are always preserved.
package shape

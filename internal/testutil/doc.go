// Package testutil contains helper builders and utilities used across tests
// to reduce boilerplate when constructing sessions and extraction results and
// asserting store behavior. They are not intended for production usage.
package testutil

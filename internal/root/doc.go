// Package root provides the shared root element whose theme attribute acts as
// the explicit dark/light override, and keeps it in sync with an on-disk state
// file so other processes (and `umbra set`) can change it.
package root

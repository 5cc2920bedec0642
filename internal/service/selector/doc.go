// Package selector picks the alarm that must fire next among many.
package selector

// Package resolver turns an alarm definition into its next trigger instant.
//
// Resolution runs in two steps: the base time of the mode (At, Before, After,
// Between) computed from explicit instants and today's solar events, then a
// weekday rollover that moves the candidate into the future and onto the
// first enabled day of the week.
package resolver

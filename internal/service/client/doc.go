// Package client implements the remote actions of alarm-ctl.
//
// Each action connects to the scheduler control API, performs one call on
// behalf of the detected actor and logs the outcome.
package client

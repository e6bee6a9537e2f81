// Package window generates tapering windows for FIR design.
package window

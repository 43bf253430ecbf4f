// Package fleet holds the device model and the serial → hostname lookup
// table used when addressing commands and labelling outcomes.
//
// The serial number is the stable identifier the manager uses as the API
// target. Hostnames are display-only and are not guaranteed to be unique.
package fleet

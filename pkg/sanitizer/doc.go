// Package sanitizer normalizes free-form request input before validation and
// storage.
//
// Every function is idempotent. Invalid input never produces an error; it
// normalizes to an empty string or an empty slice instead.
package sanitizer

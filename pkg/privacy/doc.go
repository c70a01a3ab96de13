// Package privacy anonymizes identifiers and scrubs free-form text before
// events are stored or delivered.
//
// # Overview
//
// Two concerns live here:
//
//   - Anonymizer: one-way, deterministic hashing of session identifiers so
//     events can be correlated without exposing the raw id.
//   - Sanitizer: pattern substitution over error messages and stack traces,
//     removing emails, phone-like digit runs, token-like alphanumeric runs,
//     and filesystem paths.
//
// # Usage Example
//
//	anon, _ := privacy.NewAnonymizer(cfg.AnonymizationSalt)
//	ref := anon.Anonymize(rawSessionID)
//
//	msg := privacy.SanitizeMessage("contact me at a@b.com")
//	// "contact me at <email>"
package privacy

// SPDX-License-Identifier: MPL-2.0

// Package contentaddr derives content-addressed storage names.
//
// A package installed from a content hash lives in a storage root under
// packages/<name>/<slug>, where the slug is a short string computed from the
// package identity and its content hash. Slugs are pure functions of their
// inputs: the byte order fed to the checksum is fixed, so the same pair
// produces the same slug on every platform.
package contentaddr

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package docid generates and recognises the 24-character hexadecimal
// document identifiers used for accounts, categories, posts and comments.
// An id is 12 bytes: a 4-byte big-endian Unix timestamp followed by 8
// random bytes, so ids sort roughly by creation time.
package docid

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
)

// Length is the length of an encoded id.
const Length = 24

var pattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// New returns a fresh lowercase id for the current time.
func New() string {
	return NewAt(time.Now())
}

// NewAt returns a fresh lowercase id whose timestamp prefix is t.
func NewAt(t time.Time) string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[:4], uint32(t.Unix()))
	// crypto/rand.Read never returns an error on supported platforms.
	rand.Read(b[4:])
	return hex.EncodeToString(b[:])
}

// Valid reports whether s has the shape of an id (24 hex digits, any case).
func Valid(s string) bool {
	return pattern.MatchString(s)
}

// Normalize lowercases s for lookups. It returns ("", false) when s is not
// a valid id.
func Normalize(s string) (string, bool) {
	if !Valid(s) {
		return "", false
	}
	return strings.ToLower(s), true
}

// Time returns the creation timestamp encoded in a valid id.
func Time(id string) (time.Time, bool) {
	b, err := hex.DecodeString(id)
	if err != nil || len(b) != 12 {
		return time.Time{}, false
	}
	return time.Unix(int64(binary.BigEndian.Uint32(b[:4])), 0), true
}

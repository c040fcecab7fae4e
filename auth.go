// Copyright 2009 The XGB Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xgb

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Address families used in Xauthority entries, as per
// /usr/include/X11/Xauth.h.
const (
	FamilyInternet  = 0
	FamilyDECnet    = 1
	FamilyChaos     = 2
	FamilyInternet6 = 6
	FamilyLocal     = 256
	FamilyWild      = 65535
)

// AuthEntry is one record of an Xauthority file.
type AuthEntry struct {
	Family  uint16
	Address string
	Display string
	Name    string
	Data    []byte
}

func getU16BE(r io.Reader, b []byte) (uint16, error) {
	_, err := io.ReadFull(r, b[0:2])
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 + uint16(b[1]), nil
}

func getBytes(r io.Reader, b []byte) ([]byte, error) {
	n, err := getU16BE(r, b)
	if err != nil {
		return nil, err
	}
	if int(n) > len(b) {
		return nil, errors.New("bytes too long for buffer")
	}
	_, err = io.ReadFull(r, b[0:n])
	if err != nil {
		return nil, err
	}
	return b[0:n], nil
}

func getString(r io.Reader, b []byte) (string, error) {
	b, err := getBytes(r, b)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadAuthorityFile reads every entry of the Xauthority file at path.
func ReadAuthorityFile(path string) ([]AuthEntry, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open Xauthority")
	}
	defer r.Close()
	return readAuthEntries(bufio.NewReader(r))
}

func readAuthEntries(r io.Reader) ([]AuthEntry, error) {
	// b is a scratch buffer; every field is at most 65535 bytes.
	b := make([]byte, 0x10000)

	var entries []AuthEntry
	for {
		family, err := getU16BE(r, b[0:2])
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "read Xauthority")
		}

		var e AuthEntry
		e.Family = family
		if e.Address, err = getString(r, b); err != nil {
			return nil, errors.Wrap(err, "read Xauthority address")
		}
		if e.Display, err = getString(r, b); err != nil {
			return nil, errors.Wrap(err, "read Xauthority display")
		}
		if e.Name, err = getString(r, b); err != nil {
			return nil, errors.Wrap(err, "read Xauthority name")
		}
		data, err := getBytes(r, b)
		if err != nil {
			return nil, errors.Wrap(err, "read Xauthority data")
		}
		e.Data = append([]byte(nil), data...)
		entries = append(entries, e)
	}
}

// ReadAuthority reads the Xauthority file at path and returns the name and
// data of the first entry matching family, address and display. Entries
// with the wild family match any address. For FamilyLocal, an empty
// address or "localhost" stands for the system's hostname.
//
// The result can be passed to WithAuth.
func ReadAuthority(path string, family uint16, address, display string) (name string, data []byte, err error) {
	entries, err := ReadAuthorityFile(path)
	if err != nil {
		return "", nil, err
	}

	if family == FamilyLocal && (address == "" || address == "localhost") {
		address, err = os.Hostname()
		if err != nil {
			return "", nil, errors.Wrap(err, "hostname")
		}
	}

	for _, e := range entries {
		if e.Display != display && e.Display != "" {
			continue
		}
		if e.Family == FamilyWild || (e.Family == family && e.Address == address) {
			return e.Name, e.Data, nil
		}
	}
	return "", nil, errors.Errorf("no Xauthority entry for display %q at %q", display, address)
}

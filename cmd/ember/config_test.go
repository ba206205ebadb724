// Copyright 2024 The go-ember Authors
// This file is part of go-ember.
//
// go-ember is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ember is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ember. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/emberchain/go-ember/node"
)

func TestConfigFileRoundTrip(t *testing.T) {
	want := emberConfig{Node: node.DefaultConfig}
	want.Node.DataDir = "/var/lib/ember"
	want.Node.Network = "testnet"
	want.Node.Port = 18585
	want.Node.NAT = "extip:203.0.113.50"
	want.Node.EnableWallet = true

	out, err := tomlSettings.Marshal(&want)
	if err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(t.TempDir(), "ember.toml")
	if err := os.WriteFile(file, out, 0644); err != nil {
		t.Fatal(err)
	}

	var got emberConfig
	got.Node = node.DefaultConfig
	if err := loadConfig(file, &got); err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("config did not survive the round trip:\ngot  %+v\nwant %+v", got, want)
	}
}

// A key that does not correspond to any config field must be rejected, not
// silently ignored; typos in config files should fail loudly.
func TestConfigFileUnknownField(t *testing.T) {
	file := filepath.Join(t.TempDir(), "ember.toml")
	content := "[Node]\nNetwork = \"testnet\"\nMystery = 42\n"
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	var cfg emberConfig
	err := loadConfig(file, &cfg)
	if err == nil {
		t.Fatal("unknown field accepted")
	}
	if !strings.Contains(err.Error(), "Mystery") {
		t.Fatalf("error does not name the offending field: %v", err)
	}
}

func TestConfigFileMissing(t *testing.T) {
	var cfg emberConfig
	err := loadConfig(filepath.Join(t.TempDir(), "absent.toml"), &cfg)
	if err == nil {
		t.Fatal("missing file accepted")
	}
	if !os.IsNotExist(err) {
		t.Fatalf("unexpected error for missing file: %v", err)
	}
}

// Copyright 2026 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package rpcflags defines the flags used by commands to connect to
// Datastore, and turns them into client options.
package rpcflags

import (
	"errors"
	"flag"
	"os"

	"github.com/google/clouddatastore/client"
	"github.com/google/clouddatastore/client/backoff"
	"golang.org/x/oauth2"
)

var (
	endpoint        = flag.String("datastore_endpoint", client.DefaultEndpoint, "Datastore gRPC endpoint")
	emulator        = flag.String("emulator", "", "Address of a Datastore emulator; overrides DATASTORE_EMULATOR_HOST")
	database        = flag.String("database", "", "Datastore database ID, empty for the default database")
	namespace       = flag.String("namespace", "", "Namespace for queries")
	credentialsFile = flag.String("credentials_file", "", "Path to a service account key file; Application Default Credentials are used if unset")
	accessToken     = flag.String("access_token", "", "OAuth2 access token to use instead of a credentials file")
	rpcTimeout      = flag.Duration("rpc_timeout", client.DefaultTimeout, "Maximum duration of a single RPC, 0 for none")
	maxAttempts     = flag.Int("max_attempts", 5, "Attempts made for retriable reads and aborted transactions, 1 to disable retries")
)

// NewClientOptionsFromFlags returns the client options selected by the flags.
// The credentials file, when given, must exist.
func NewClientOptionsFromFlags() ([]client.Option, error) {
	if *credentialsFile != "" && *accessToken != "" {
		return nil, errors.New("--credentials_file and --access_token are mutually exclusive")
	}
	opts := []client.Option{
		client.WithEndpoint(*endpoint),
		client.WithDatabase(*database),
		client.WithNamespace(*namespace),
		client.WithTimeout(*rpcTimeout),
	}
	if *emulator != "" {
		opts = append(opts, client.WithEmulator(*emulator))
	}
	switch {
	case *credentialsFile != "":
		if _, err := os.Stat(*credentialsFile); err != nil {
			return nil, err
		}
		opts = append(opts, client.WithCredentialsFile(*credentialsFile))
	case *accessToken != "":
		opts = append(opts, client.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: *accessToken})))
	}
	if *maxAttempts > 1 {
		b := backoff.Default()
		b.MaxAttempts = *maxAttempts
		opts = append(opts, client.WithRetry(b))
	}
	return opts, nil
}

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

// Package errors defines the error representation returned by the Datastore
// client.
//
// Every error carries a Kind that tells the caller which layer failed: the
// RPC itself (a gRPC status returned by Datastore), the conversion between
// entities and Go values, the transport (dialing, TLS, credentials) or the
// client configuration. The underlying error is always preserved and can be
// inspected with the standard errors.Is / errors.As functions.
//
// Callers interested in the gRPC code of a failed RPC should use Code rather
// than inspecting the error chain by hand, since Code also understands
// context cancellation and deadline errors.
package errors

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

// Package clouddatastore is a Cloud Datastore client built on the v1 gRPC API,
// together with the tooling that regenerates its protobuf bindings.
//
// The client lives in package client and the entity helpers in package
// entity. Bindings are regenerated from the googleapis submodule with
//
//	go generate .
//
// which runs cmd/protobuild as configured by protobuild.yaml.
package clouddatastore

//go:generate go run -tags protobuild ./cmd/protobuild --config=protobuild.yaml

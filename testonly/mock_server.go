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

package testonly

import (
	"net"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"github.com/golang/mock/gomock"
	"github.com/google/clouddatastore/testonly/tmock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// MockServer serves a MockDatastoreServer over a local gRPC connection.
type MockServer struct {
	Datastore *tmock.MockDatastoreServer
	Conn      *grpc.ClientConn
	Addr      string
}

// NewMockServer starts a server on a random port.
// Returns the started server and a close function that must be defer-called
// on the scope the server is meant to stop.
func NewMockServer(ctrl *gomock.Controller) (*MockServer, func(), error) {
	grpcServer := grpc.NewServer()
	ds := tmock.NewMockDatastoreServer(ctrl)
	datastorepb.RegisterDatastoreServer(grpcServer, ds)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, nil, err
	}
	go grpcServer.Serve(lis)

	cc, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		grpcServer.Stop()
		lis.Close()
		return nil, nil, err
	}

	stopFn := func() {
		cc.Close()
		grpcServer.Stop()
		lis.Close()
	}

	return &MockServer{
		Datastore: ds,
		Conn:      cc,
		Addr:      lis.Addr().String(),
	}, stopFn, nil
}

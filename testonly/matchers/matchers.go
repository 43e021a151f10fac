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

package matchers

import (
	"fmt"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
	"github.com/golang/mock/gomock"
)

type atLeast struct {
	num int
}

// AtLeast returns a matcher for ints no smaller than num.
func AtLeast(num int) gomock.Matcher {
	return atLeast{num}
}

func (m atLeast) Matches(x interface{}) bool {
	n, ok := x.(int)
	return ok && n >= m.num
}

func (m atLeast) String() string {
	return fmt.Sprintf("at least %d", m.num)
}

type mutationCount struct {
	num int
}

// MutationCount matches a CommitRequest carrying exactly num mutations.
func MutationCount(num int) gomock.Matcher {
	return mutationCount{num}
}

func (m mutationCount) Matches(x interface{}) bool {
	req, ok := x.(*datastorepb.CommitRequest)
	return ok && len(req.GetMutations()) == m.num
}

func (m mutationCount) String() string {
	return fmt.Sprintf("commit with %d mutations", m.num)
}

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

package entity

import "fmt"

// KeyError reports a key that does not have the expected shape.
type KeyError struct {
	msg string
}

func (e *KeyError) Error() string { return e.msg }

// ValueError reports a property that is missing or has an unexpected type.
type ValueError struct {
	// Field is the property name, empty for key errors.
	Field string
	msg   string
}

func (e *ValueError) Error() string { return e.msg }

func missingField(name string) error {
	return &ValueError{Field: name, msg: fmt.Sprintf("Entity missing required field '%s'", name)}
}

func wrongType(name, want string) error {
	return &ValueError{Field: name, msg: fmt.Sprintf("Field %s is not %s", name, want)}
}

// ConversionError is returned when an entity cannot be converted into a Go
// value. It wraps the KeyError or ValueError that caused it.
type ConversionError struct {
	Err error
}

// NewConversionError wraps err. Returns nil if err is nil.
func NewConversionError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*ConversionError); ok {
		return err
	}
	return &ConversionError{Err: err}
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("failed to convert entity: %v", e.Err)
}

// Unwrap returns the underlying KeyError or ValueError.
func (e *ConversionError) Unwrap() error { return e.Err }

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

import (
	"time"

	"cloud.google.com/go/datastore/apiv1/datastorepb"
)

// Builder assembles a Datastore entity property by property.
//
//	e := entity.NewBuilder().
//		WithKeyName("Book", "book_one").
//		AddString("title", "Book One Title", true).
//		AddStringArray("tags", []string{"tag_one", "tag_two"}).
//		Build()
//
// Adding a property that already exists replaces it.
type Builder struct {
	e *datastorepb.Entity
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{e: &datastorepb.Entity{Properties: make(map[string]*datastorepb.Value)}}
}

// WithKey sets the key of the entity.
func (b *Builder) WithKey(k *datastorepb.Key) *Builder {
	b.e.Key = k
	return b
}

// WithKeyName sets a single-element named key.
func (b *Builder) WithKeyName(kind, name string) *Builder {
	return b.WithKey(NameKey(kind, name, nil))
}

// WithKeyID sets a single-element numeric key.
func (b *Builder) WithKeyID(kind string, id int64) *Builder {
	return b.WithKey(IDKey(kind, id, nil))
}

// AddValue sets a property. An unindexed property is excluded from all
// Datastore indexes and cannot be used in query filters or orders.
func (b *Builder) AddValue(name string, v *datastorepb.Value, indexed bool) *Builder {
	v.ExcludeFromIndexes = !indexed
	b.e.Properties[name] = v
	return b
}

// OptValue sets a property if v is not nil.
func (b *Builder) OptValue(name string, v *datastorepb.Value, indexed bool) *Builder {
	if v == nil {
		return b
	}
	return b.AddValue(name, v, indexed)
}

// AddString sets a string property.
func (b *Builder) AddString(name, value string, indexed bool) *Builder {
	return b.AddValue(name, StringValue(value), indexed)
}

// OptString sets a string property if value is not nil.
func (b *Builder) OptString(name string, value *string, indexed bool) *Builder {
	if value == nil {
		return b
	}
	return b.AddString(name, *value, indexed)
}

// AddBool sets a boolean property.
func (b *Builder) AddBool(name string, value, indexed bool) *Builder {
	return b.AddValue(name, BoolValue(value), indexed)
}

// OptBool sets a boolean property if value is not nil.
func (b *Builder) OptBool(name string, value *bool, indexed bool) *Builder {
	if value == nil {
		return b
	}
	return b.AddBool(name, *value, indexed)
}

// AddInt sets an integer property.
func (b *Builder) AddInt(name string, value int64, indexed bool) *Builder {
	return b.AddValue(name, IntValue(value), indexed)
}

// OptInt sets an integer property if value is not nil.
func (b *Builder) OptInt(name string, value *int64, indexed bool) *Builder {
	if value == nil {
		return b
	}
	return b.AddInt(name, *value, indexed)
}

// AddDouble sets a floating point property.
func (b *Builder) AddDouble(name string, value float64, indexed bool) *Builder {
	return b.AddValue(name, DoubleValue(value), indexed)
}

// AddTime sets a timestamp property.
func (b *Builder) AddTime(name string, value time.Time, indexed bool) *Builder {
	return b.AddValue(name, TimeValue(value), indexed)
}

// OptTime sets a timestamp property if value is not nil.
func (b *Builder) OptTime(name string, value *time.Time, indexed bool) *Builder {
	if value == nil {
		return b
	}
	return b.AddTime(name, *value, indexed)
}

// AddKey sets a key reference property.
func (b *Builder) AddKey(name string, value *datastorepb.Key, indexed bool) *Builder {
	return b.AddValue(name, KeyValue(value), indexed)
}

// AddBlob sets a bytes property.
func (b *Builder) AddBlob(name string, value []byte, indexed bool) *Builder {
	return b.AddValue(name, BlobValue(value), indexed)
}

// AddNull sets a null property.
func (b *Builder) AddNull(name string) *Builder {
	return b.AddValue(name, NullValue(), true)
}

// AddStringArray sets an array of strings. Datastore rejects arrays that are
// themselves marked unindexed, so the array is always indexed.
func (b *Builder) AddStringArray(name string, values []string) *Builder {
	return b.AddValue(name, StringArrayValue(values), true)
}

// Build returns the assembled entity. The Builder must not be used afterwards.
func (b *Builder) Build() *datastorepb.Entity {
	return b.e
}

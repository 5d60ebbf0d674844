// Copyright 2025 Poiesic Systems
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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunk indicates a PageChunk failed validation.
	ErrInvalidChunk = errors.New("invalid page chunk")

	// ErrEmptyURL indicates the Url field is empty.
	ErrEmptyURL = errors.New("chunk url cannot be empty")

	// ErrNegativeIndex indicates the Index field is negative.
	ErrNegativeIndex = errors.New("chunk index cannot be negative")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("chunk content cannot be empty")
)

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


package storage

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/sitedex/core"
)

// Hand-written MUS serializers for the stored record types. Field order is
// part of the on-disk format and must not change between releases.
var (
	vectorMUS = ord.NewSliceSer[float32](varint.Float32)

	// TimeMUS serializes time.Time as Unix microseconds, UTC on read.
	TimeMUS = timeSer{}

	// ChunkMetadataMUS serializes core.ChunkMetadata.
	ChunkMetadataMUS = chunkMetadataSer{}

	// PageChunkMUS serializes core.PageChunk.
	PageChunkMUS = pageChunkSer{}
)

var (
	_ mus.Serializer[time.Time]          = timeSer{}
	_ mus.Serializer[core.ChunkMetadata] = chunkMetadataSer{}
	_ mus.Serializer[core.PageChunk]     = pageChunkSer{}
)

type timeSer struct{}

func (timeSer) Marshal(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func (timeSer) Unmarshal(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func (timeSer) Size(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

func (timeSer) Skip(bs []byte) (int, error) {
	return varint.Int64.Skip(bs)
}

type chunkMetadataSer struct{}

func (chunkMetadataSer) Marshal(m core.ChunkMetadata, bs []byte) (n int) {
	n = ord.String.Marshal(m.Source, bs)
	n += varint.Int.Marshal(m.Size, bs[n:])
	n += TimeMUS.Marshal(m.CrawledAt, bs[n:])
	n += ord.String.Marshal(m.URLPath, bs[n:])
	return n
}

func (chunkMetadataSer) Unmarshal(bs []byte) (m core.ChunkMetadata, n int, err error) {
	var n1 int
	m.Source, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	m.Size, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	m.CrawledAt, n1, err = TimeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	m.URLPath, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (chunkMetadataSer) Size(m core.ChunkMetadata) int {
	return ord.String.Size(m.Source) +
		varint.Int.Size(m.Size) +
		TimeMUS.Size(m.CrawledAt) +
		ord.String.Size(m.URLPath)
}

func (chunkMetadataSer) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = TimeMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	return
}

type pageChunkSer struct{}

func (pageChunkSer) Marshal(c core.PageChunk, bs []byte) (n int) {
	n = ord.String.Marshal(c.Url, bs)
	n += varint.Int.Marshal(c.Index, bs[n:])
	n += ord.String.Marshal(c.Title, bs[n:])
	n += ord.String.Marshal(c.Summary, bs[n:])
	n += ord.String.Marshal(c.Content, bs[n:])
	n += ChunkMetadataMUS.Marshal(c.Metadata, bs[n:])
	n += vectorMUS.Marshal(c.Vector, bs[n:])
	n += TimeMUS.Marshal(c.InsertedAt, bs[n:])
	n += TimeMUS.Marshal(c.UpdatedAt, bs[n:])
	return n
}

func (pageChunkSer) Unmarshal(bs []byte) (c core.PageChunk, n int, err error) {
	var n1 int
	c.Url, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	c.Index, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Summary, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Metadata, n1, err = ChunkMetadataMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.InsertedAt, n1, err = TimeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.UpdatedAt, n1, err = TimeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (pageChunkSer) Size(c core.PageChunk) int {
	return ord.String.Size(c.Url) +
		varint.Int.Size(c.Index) +
		ord.String.Size(c.Title) +
		ord.String.Size(c.Summary) +
		ord.String.Size(c.Content) +
		ChunkMetadataMUS.Size(c.Metadata) +
		vectorMUS.Size(c.Vector) +
		TimeMUS.Size(c.InsertedAt) +
		TimeMUS.Size(c.UpdatedAt)
}

func (pageChunkSer) Skip(bs []byte) (n int, err error) {
	var n1 int
	for _, skip := range []func([]byte) (int, error){
		ord.String.Skip,
		varint.Int.Skip,
		ord.String.Skip,
		ord.String.Skip,
		ord.String.Skip,
		ChunkMetadataMUS.Skip,
		vectorMUS.Skip,
		TimeMUS.Skip,
		TimeMUS.Skip,
	} {
		n1, err = skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

// MarshalPageChunk serializes a PageChunk to bytes.
func MarshalPageChunk(chunk *core.PageChunk) []byte {
	buf := make([]byte, PageChunkMUS.Size(*chunk))
	PageChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalPageChunk deserializes a PageChunk from bytes.
func UnmarshalPageChunk(data []byte) (*core.PageChunk, error) {
	chunk, _, err := PageChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for stored types. Maintained by hand; field order must stay
// in sync with the struct definitions in models.go.
var (
	IDMUS             = idMUS{}
	ProcessedChunkMUS = processedChunkMUS{}

	stringSliceSer = ord.NewSliceSer[string](ord.String)
	vectorSer      = ord.NewSliceSer[float32](raw.Float32)
)

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

type processedChunkMUS struct{}

func (processedChunkMUS) Marshal(v ProcessedChunk, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Content, bs[n:])
	n += ord.String.Marshal(v.DocumentID, bs[n:])
	n += ord.String.Marshal(v.DatasetID, bs[n:])
	n += ord.String.Marshal(v.DocumentName, bs[n:])
	n += stringSliceSer.Marshal(v.ImportantKeywords, bs[n:])
	n += stringSliceSer.Marshal(v.Questions, bs[n:])
	n += vectorSer.Marshal(v.Vector, bs[n:])
	n += varint.Int.Marshal(v.VectorDim, bs[n:])
	n += varint.Int64.Marshal(v.InsertedAt.UnixMicro(), bs[n:])
	return n
}

func (processedChunkMUS) Unmarshal(bs []byte) (v ProcessedChunk, n int, err error) {
	var n1 int
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.DocumentID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.DatasetID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.DocumentName, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ImportantKeywords, n1, err = stringSliceSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Questions, n1, err = stringSliceSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = vectorSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.VectorDim, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micro int64
	micro, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt = time.UnixMicro(micro)
	return
}

func (processedChunkMUS) Size(v ProcessedChunk) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Content)
	size += ord.String.Size(v.DocumentID)
	size += ord.String.Size(v.DatasetID)
	size += ord.String.Size(v.DocumentName)
	size += stringSliceSer.Size(v.ImportantKeywords)
	size += stringSliceSer.Size(v.Questions)
	size += vectorSer.Size(v.Vector)
	size += varint.Int.Size(v.VectorDim)
	size += varint.Int64.Size(v.InsertedAt.UnixMicro())
	return size
}

func (processedChunkMUS) Skip(bs []byte) (n int, err error) {
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	for range 4 {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	for range 2 {
		n1, err = stringSliceSer.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = vectorSer.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	return
}

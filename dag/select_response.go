package dag

import (
	"github.com/quarrydb/quarry/common"
)

// ResultChunk is a run of output rows in final row encoding. NumRows is carried alongside
// because the row encoding is not self delimiting at the chunk level.
type ResultChunk struct {
	RowsData []byte
	NumRows  uint32
}

// SelectError is an error or warning carried inside a response.
type SelectError struct {
	Code int
	Msg  string
}

// SelectResponse is what a select request produces. A business failure sets Error and the
// response still travels back as a transport level success. WarningCount is the true number
// of warnings raised - Warnings itself is capped, so the two can differ.
type SelectResponse struct {
	Chunks       []ResultChunk
	Error        *SelectError
	Warnings     []*SelectError
	WarningCount int
}

func (r *SelectResponse) Serialize(buff []byte) ([]byte, error) {
	buff = common.AppendUint32ToBufferLE(buff, uint32(len(r.Chunks)))
	for _, chunk := range r.Chunks {
		buff = common.AppendUint32ToBufferLE(buff, chunk.NumRows)
		buff = common.AppendUint32ToBufferLE(buff, uint32(len(chunk.RowsData)))
		buff = append(buff, chunk.RowsData...)
	}
	if r.Error != nil {
		buff = append(buff, 1)
		buff = common.AppendUint32ToBufferLE(buff, uint32(r.Error.Code))
		buff = common.AppendStringToBufferLE(buff, r.Error.Msg)
	} else {
		buff = append(buff, 0)
	}
	buff = common.AppendUint32ToBufferLE(buff, uint32(r.WarningCount))
	buff = common.AppendUint32ToBufferLE(buff, uint32(len(r.Warnings)))
	for _, warning := range r.Warnings {
		buff = common.AppendUint32ToBufferLE(buff, uint32(warning.Code))
		buff = common.AppendStringToBufferLE(buff, warning.Msg)
	}
	return buff, nil
}

func DeserializeSelectResponse(buff []byte) (*SelectResponse, error) {
	resp := &SelectResponse{}
	offset := 0
	var numChunks uint32
	numChunks, offset = common.ReadUint32FromBufferLE(buff, offset)
	for i := uint32(0); i < numChunks; i++ {
		chunk := ResultChunk{}
		chunk.NumRows, offset = common.ReadUint32FromBufferLE(buff, offset)
		var dataLen uint32
		dataLen, offset = common.ReadUint32FromBufferLE(buff, offset)
		chunk.RowsData = common.CopyByteSlice(buff[offset : offset+int(dataLen)])
		offset += int(dataLen)
		resp.Chunks = append(resp.Chunks, chunk)
	}
	hasError := buff[offset] == 1
	offset++
	if hasError {
		selErr := &SelectError{}
		var code uint32
		code, offset = common.ReadUint32FromBufferLE(buff, offset)
		selErr.Code = int(code)
		selErr.Msg, offset = common.ReadStringFromBufferLE(buff, offset)
		resp.Error = selErr
	}
	var warningCount uint32
	warningCount, offset = common.ReadUint32FromBufferLE(buff, offset)
	resp.WarningCount = int(warningCount)
	var numWarnings uint32
	numWarnings, offset = common.ReadUint32FromBufferLE(buff, offset)
	for i := uint32(0); i < numWarnings; i++ {
		warning := &SelectError{}
		var code uint32
		code, offset = common.ReadUint32FromBufferLE(buff, offset)
		warning.Code = int(code)
		warning.Msg, offset = common.ReadStringFromBufferLE(buff, offset)
		resp.Warnings = append(resp.Warnings, warning)
	}
	return resp, nil
}

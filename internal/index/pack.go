package index

import "encoding/binary"

// Pack encodes one search result entry as a SEARCH_INDEX DATA frame
// payload: path_len(4) || path || name_len(4) || name || size(8) ||
// mtime(8) || is_dir(1).
func Pack(e Entry) []byte {
	pathBytes := []byte(e.Path)
	nameBytes := []byte(e.Name)

	buf := make([]byte, 0, 4+len(pathBytes)+4+len(nameBytes)+8+8+1)

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(pathBytes)))
	buf = append(buf, u32[:]...)
	buf = append(buf, pathBytes...)

	binary.LittleEndian.PutUint32(u32[:], uint32(len(nameBytes)))
	buf = append(buf, u32[:]...)
	buf = append(buf, nameBytes...)

	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], e.Size)
	buf = append(buf, u64[:]...)
	binary.LittleEndian.PutUint64(u64[:], e.Mtime)
	buf = append(buf, u64[:]...)

	var isDir byte
	if e.IsDir {
		isDir = 1
	}
	buf = append(buf, isDir)
	return buf
}

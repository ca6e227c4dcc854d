package img

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// A minimal OpenEXR codec: single part, scanline storage, no compression,
// 32-bit float channels. This is the subset the renderer emits and reads
// back; round trips through it are bit exact.

const exrMagic uint32 = 0x01312f76

const (
	exrPixelTypeFloat int32 = 2
	exrNoCompression  byte  = 0
)

// Channel layout written by SaveEXR, in the alphabetical order the format
// requires.
var exrChannelNames = [4]string{"A", "B", "G", "R"}

// Save the accumulated image as a linear float EXR, dividing by the sample
// count first.
func SaveEXR(path string, img *Image, accum uint32) error {
	if accum == 0 {
		accum = 1
	}
	inv := 1.0 / float32(accum)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("img: could not create %s: %s", path, err.Error())
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	binary.Write(w, binary.LittleEndian, exrMagic)
	binary.Write(w, binary.LittleEndian, uint32(2))

	writeChannelsAttr(w)
	writeAttr(w, "compression", "compression", []byte{exrNoCompression})
	window := make([]byte, 16)
	binary.LittleEndian.PutUint32(window[8:], uint32(img.Width-1))
	binary.LittleEndian.PutUint32(window[12:], uint32(img.Height-1))
	writeAttr(w, "dataWindow", "box2i", window)
	writeAttr(w, "displayWindow", "box2i", window)
	writeAttr(w, "lineOrder", "lineOrder", []byte{0})
	writeFloatAttr(w, "pixelAspectRatio", 1.0)
	writeAttr(w, "screenWindowCenter", "v2f", make([]byte, 8))
	writeFloatAttr(w, "screenWindowWidth", 1.0)
	w.WriteByte(0)

	// Scanline offset table. Chunks are laid out back to back right after
	// the table itself.
	headerSize := exrHeaderSize(img)
	chunkSize := 8 + 4*4*img.Width
	for y := 0; y < img.Height; y++ {
		binary.Write(w, binary.LittleEndian, uint64(headerSize+8*img.Height+y*chunkSize))
	}

	row := make([]byte, 4*img.Width)
	for y := 0; y < img.Height; y++ {
		binary.Write(w, binary.LittleEndian, int32(y))
		binary.Write(w, binary.LittleEndian, int32(4*4*img.Width))
		pixels := img.Row(y)
		// A, B, G, R planes
		for _, c := range [4]int{3, 2, 1, 0} {
			for x := 0; x < img.Width; x++ {
				binary.LittleEndian.PutUint32(row[x*4:], math.Float32bits(pixels[x][c]*inv))
			}
			w.Write(row)
		}
	}

	if err = w.Flush(); err != nil {
		return fmt.Errorf("img: could not write %s: %s", path, err.Error())
	}
	return nil
}

func writeAttr(w *bufio.Writer, name, typeName string, value []byte) {
	w.WriteString(name)
	w.WriteByte(0)
	w.WriteString(typeName)
	w.WriteByte(0)
	binary.Write(w, binary.LittleEndian, int32(len(value)))
	w.Write(value)
}

func writeFloatAttr(w *bufio.Writer, name string, value float32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(value))
	writeAttr(w, name, "float", buf[:])
}

func writeChannelsAttr(w *bufio.Writer) {
	var value bytes.Buffer
	for _, name := range exrChannelNames {
		value.WriteString(name)
		value.WriteByte(0)
		binary.Write(&value, binary.LittleEndian, exrPixelTypeFloat)
		value.Write([]byte{0, 0, 0, 0}) // pLinear + reserved
		binary.Write(&value, binary.LittleEndian, int32(1))
		binary.Write(&value, binary.LittleEndian, int32(1))
	}
	value.WriteByte(0)
	writeAttr(w, "channels", "chlist", value.Bytes())
}

func exrHeaderSize(img *Image) int {
	size := 8 // magic + version
	attrSize := func(name, typeName string, valueLen int) int {
		return len(name) + 1 + len(typeName) + 1 + 4 + valueLen
	}
	size += attrSize("channels", "chlist", 4*18+1)
	size += attrSize("compression", "compression", 1)
	size += attrSize("dataWindow", "box2i", 16)
	size += attrSize("displayWindow", "box2i", 16)
	size += attrSize("lineOrder", "lineOrder", 1)
	size += attrSize("pixelAspectRatio", "float", 4)
	size += attrSize("screenWindowCenter", "v2f", 8)
	size += attrSize("screenWindowWidth", "float", 4)
	size += 1 // header terminator
	return size
}

type exrChannel struct {
	name      string
	pixelType int32
}

// Load a linear float EXR produced by SaveEXR (or any uncompressed
// single-part scanline file with float channels).
func LoadEXR(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("img: could not open %s: %s", path, err.Error())
	}
	r := bytes.NewReader(data)

	var magic, version uint32
	binary.Read(r, binary.LittleEndian, &magic)
	binary.Read(r, binary.LittleEndian, &version)
	if magic != exrMagic {
		return nil, fmt.Errorf("img: %s is not an exr file", path)
	}
	if version&0x200 != 0 || version&0x1000 != 0 {
		return nil, fmt.Errorf("img: %s uses an unsupported exr layout", path)
	}

	var channels []exrChannel
	var width, height int
	compression := exrNoCompression

	for {
		name, err := readNullString(r)
		if err != nil {
			return nil, fmt.Errorf("img: truncated exr header in %s", path)
		}
		if name == "" {
			break
		}
		typeName, err := readNullString(r)
		if err != nil {
			return nil, fmt.Errorf("img: truncated exr header in %s", path)
		}
		var size int32
		if err = binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, fmt.Errorf("img: truncated exr header in %s", path)
		}
		value := make([]byte, size)
		if _, err = io.ReadFull(r, value); err != nil {
			return nil, fmt.Errorf("img: truncated exr header in %s", path)
		}

		switch name {
		case "channels":
			channels, err = parseChannelList(value)
			if err != nil {
				return nil, fmt.Errorf("img: %s: %s", path, err.Error())
			}
		case "compression":
			compression = value[0]
		case "dataWindow":
			if typeName != "box2i" || len(value) != 16 {
				return nil, fmt.Errorf("img: malformed dataWindow in %s", path)
			}
			xMin := int32(binary.LittleEndian.Uint32(value[0:]))
			yMin := int32(binary.LittleEndian.Uint32(value[4:]))
			xMax := int32(binary.LittleEndian.Uint32(value[8:]))
			yMax := int32(binary.LittleEndian.Uint32(value[12:]))
			width = int(xMax-xMin) + 1
			height = int(yMax-yMin) + 1
		}
	}

	if compression != exrNoCompression {
		return nil, fmt.Errorf("img: %s uses compression; only uncompressed scanlines are supported", path)
	}
	if len(channels) == 0 || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("img: missing channels or data window in %s", path)
	}
	for _, ch := range channels {
		if ch.pixelType != exrPixelTypeFloat {
			return nil, fmt.Errorf("img: %s has non-float channel %q", path, ch.name)
		}
	}

	// Map channel names to pixel components; unknown names land on red.
	component := make([]int, len(channels))
	for i, ch := range channels {
		switch ch.name {
		case "r", "R":
			component[i] = 0
		case "g", "G":
			component[i] = 1
		case "b", "B":
			component[i] = 2
		case "a", "A":
			component[i] = 3
		}
	}

	// Skip the offset table; chunks are read sequentially.
	if _, err = r.Seek(int64(8*height), io.SeekCurrent); err != nil {
		return nil, fmt.Errorf("img: truncated exr offset table in %s", path)
	}

	out := New(width, height)
	plane := make([]byte, 4*width)
	for line := 0; line < height; line++ {
		var y, size int32
		if err = binary.Read(r, binary.LittleEndian, &y); err != nil {
			return nil, fmt.Errorf("img: truncated exr chunk in %s", path)
		}
		binary.Read(r, binary.LittleEndian, &size)
		if y < 0 || int(y) >= height {
			return nil, fmt.Errorf("img: scanline %d out of range in %s", y, path)
		}
		pixels := out.Row(int(y))
		for i := range channels {
			if _, err = io.ReadFull(r, plane); err != nil {
				return nil, fmt.Errorf("img: truncated exr chunk in %s", path)
			}
			c := component[i]
			for x := 0; x < width; x++ {
				pixels[x][c] = math.Float32frombits(binary.LittleEndian.Uint32(plane[x*4:]))
			}
		}
	}

	return out, nil
}

func parseChannelList(value []byte) ([]exrChannel, error) {
	r := bytes.NewReader(value)
	var channels []exrChannel
	for {
		name, err := readNullString(r)
		if err != nil {
			return nil, fmt.Errorf("malformed channel list")
		}
		if name == "" {
			return channels, nil
		}
		var fields struct {
			PixelType int32
			PLinear   [4]byte
			XSampling int32
			YSampling int32
		}
		if err = binary.Read(r, binary.LittleEndian, &fields); err != nil {
			return nil, fmt.Errorf("malformed channel list")
		}
		channels = append(channels, exrChannel{name: name, pixelType: fields.PixelType})
	}
}

func readNullString(r *bytes.Reader) (string, error) {
	var buf bytes.Buffer
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return buf.String(), nil
		}
		buf.WriteByte(b)
	}
}

package mnist

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"io"

	"github.com/neurlang/digitnet/preprocess"
	"github.com/pkg/errors"
)

// ErrFormat is returned for data that is not a well formed IDX file.
var ErrFormat = errors.New("malformed idx data")

const (
	imagesMagic  = 2051
	labelsMagic  = 2049
	imagesHeader = 16
	labelsHeader = 8
)

// readAll returns the IDX payload of r, inflating it when it is gzip compressed.
func readAll(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "opening gzip stream")
		}
		defer zr.Close()
		data, err := io.ReadAll(zr)
		return data, errors.Wrap(err, "inflating gzip stream")
	}
	data, err := io.ReadAll(br)
	return data, errors.Wrap(err, "reading idx stream")
}

// ParseImages decodes an IDX3 image file, plain or gzip compressed.
func ParseImages(r io.Reader) ([]preprocess.Image, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < imagesHeader {
		return nil, errors.Wrapf(ErrFormat, "image header truncated at %d bytes", len(data))
	}
	if magic := binary.BigEndian.Uint32(data); magic != imagesMagic {
		return nil, errors.Wrapf(ErrFormat, "image magic %d", magic)
	}
	count := int(binary.BigEndian.Uint32(data[4:]))
	rows := int(binary.BigEndian.Uint32(data[8:]))
	cols := int(binary.BigEndian.Uint32(data[12:]))
	if rows <= 0 || cols <= 0 {
		return nil, errors.Wrapf(ErrFormat, "image size %dx%d", rows, cols)
	}
	data = data[imagesHeader:]
	// compared by division, the header fields can multiply past the int range
	if rows > len(data) || cols > len(data) {
		return nil, errors.Wrapf(ErrFormat, "image size %dx%d exceeds %d bytes", rows, cols, len(data))
	}
	size := rows * cols
	if len(data)%size != 0 || len(data)/size != count {
		return nil, errors.Wrapf(ErrFormat, "%d images of %dx%d, have %d bytes", count, rows, cols, len(data))
	}
	images := make([]preprocess.Image, count)
	for i := range images {
		images[i] = preprocess.Image{Height: rows, Width: cols, Pix: data[i*size : (i+1)*size : (i+1)*size]}
	}
	return images, nil
}

// ParseLabels decodes an IDX1 label file, plain or gzip compressed.
func ParseLabels(r io.Reader) ([]uint8, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) < labelsHeader {
		return nil, errors.Wrapf(ErrFormat, "label header truncated at %d bytes", len(data))
	}
	if magic := binary.BigEndian.Uint32(data); magic != labelsMagic {
		return nil, errors.Wrapf(ErrFormat, "label magic %d", magic)
	}
	count := int(binary.BigEndian.Uint32(data[4:]))
	data = data[labelsHeader:]
	if len(data) != count {
		return nil, errors.Wrapf(ErrFormat, "%d labels, have %d bytes", count, len(data))
	}
	for i, l := range data {
		if l >= preprocess.NumClasses {
			return nil, errors.Wrapf(ErrFormat, "label %d at %d", l, i)
		}
	}
	return data, nil
}

// WriteImages encodes images as a gzip compressed IDX3 file. All images must share a size.
func WriteImages(w io.Writer, images []preprocess.Image) error {
	var rows, cols int
	if len(images) > 0 {
		rows, cols = images[0].Height, images[0].Width
	}
	var buf bytes.Buffer
	header := [4]uint32{imagesMagic, uint32(len(images)), uint32(rows), uint32(cols)}
	for _, v := range header {
		binary.Write(&buf, binary.BigEndian, v)
	}
	for i, img := range images {
		if err := img.Validate(); err != nil {
			return errors.Wrapf(err, "image %d", i)
		}
		if img.Height != rows || img.Width != cols {
			return errors.Wrapf(preprocess.ErrShape, "image %d is %dx%d, file is %dx%d", i, img.Height, img.Width, rows, cols)
		}
		buf.Write(img.Pix)
	}
	return writeGzip(w, buf.Bytes())
}

// WriteLabels encodes labels as a gzip compressed IDX1 file.
func WriteLabels(w io.Writer, labels []uint8) error {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(labelsMagic))
	binary.Write(&buf, binary.BigEndian, uint32(len(labels)))
	buf.Write(labels)
	return writeGzip(w, buf.Bytes())
}

func writeGzip(w io.Writer, data []byte) error {
	zw := gzip.NewWriter(w)
	if _, err := zw.Write(data); err != nil {
		return errors.Wrap(err, "compressing idx")
	}
	return errors.Wrap(zw.Close(), "compressing idx")
}

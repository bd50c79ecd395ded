package readfiles

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/godeform/mesh"
)

/*
Animation files hold a sequence of poses of one mesh, little endian:

	magic     [4]byte "GDFA"
	nFrames   int64
	nVertices int64
	data      float64 x nFrames x nVertices x 3, frame major, then vertex, then axis
*/
var (
	animationMagic = [4]byte{'G', 'D', 'F', 'A'}
	byteorder      = binary.LittleEndian
)

var ErrNotAnimation = errors.New("readfiles: not an animation file")

// Header limits; larger counts are rejected before anything is allocated
const (
	MaxAnimationVertices       = 1 << 24
	MaxAnimationFrames         = 1 << 20
	MaxAnimationValues   int64 = 1 << 32 // 3 x nFrames x nVertices
)

func checkAnimationDims(nFrames, nVertices int64) error {
	switch {
	case nFrames < 0 || nVertices < 0:
		return fmt.Errorf("%w: negative dimensions %d x %d", ErrNotAnimation, nFrames, nVertices)
	case nVertices > MaxAnimationVertices:
		return fmt.Errorf("%w: %d vertices exceeds the limit of %d", ErrNotAnimation, nVertices, MaxAnimationVertices)
	case nFrames > MaxAnimationFrames:
		return fmt.Errorf("%w: %d frames exceeds the limit of %d", ErrNotAnimation, nFrames, MaxAnimationFrames)
	case 3*nFrames*nVertices > MaxAnimationValues:
		return fmt.Errorf("%w: %d frames x %d vertices exceeds the limit of %d values",
			ErrNotAnimation, nFrames, nVertices, MaxAnimationValues)
	}
	return nil
}

func ReadFrames(filename string) (seq *mesh.Sequence, err error) {
	var file *os.File
	if file, err = os.Open(filename); err != nil {
		err = fmt.Errorf("unable to open file %s: %w", filename, err)
		return
	}
	defer file.Close()
	if seq, err = DecodeFrames(bufio.NewReader(file)); err != nil {
		err = fmt.Errorf("reading %s: %w", filename, err)
	}
	return
}

func DecodeFrames(r io.Reader) (seq *mesh.Sequence, err error) {
	var (
		magic              [4]byte
		nFrames, nVertices int64
	)
	if err = binary.Read(r, byteorder, &magic); err != nil {
		return
	}
	if magic != animationMagic {
		err = fmt.Errorf("%w: magic is %q", ErrNotAnimation, magic[:])
		return
	}
	if err = binary.Read(r, byteorder, &nFrames); err != nil {
		return
	}
	if err = binary.Read(r, byteorder, &nVertices); err != nil {
		return
	}
	if err = checkAnimationDims(nFrames, nVertices); err != nil {
		return
	}
	seq = mesh.NewSlots(int(nVertices), int(nFrames))
	buf := make([]float64, 3*nVertices)
	for f := 0; f < int(nFrames); f++ {
		if err = binary.Read(r, byteorder, buf); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			seq, err = nil, fmt.Errorf("frame %d: %w", f, err)
			return
		}
		pose := make(mesh.Pose, nVertices)
		for i := range pose {
			pose[i] = r3.Vec{X: buf[3*i], Y: buf[3*i+1], Z: buf[3*i+2]}
		}
		if err = seq.SetFrame(f, pose); err != nil {
			seq = nil
			return
		}
	}
	return
}

func WriteFrames(filename string, seq *mesh.Sequence) (err error) {
	var file *os.File
	if file, err = os.Create(filename); err != nil {
		return
	}
	if err = EncodeFrames(file, seq); err != nil {
		file.Close()
		return
	}
	return file.Close()
}

func EncodeFrames(w io.Writer, seq *mesh.Sequence) (err error) {
	bw := bufio.NewWriter(w)
	if err = binary.Write(bw, byteorder, animationMagic); err != nil {
		return
	}
	if err = binary.Write(bw, byteorder, int64(seq.Len())); err != nil {
		return
	}
	if err = binary.Write(bw, byteorder, int64(seq.NumVertices())); err != nil {
		return
	}
	buf := make([]float64, 3*seq.NumVertices())
	for f := 0; f < seq.Len(); f++ {
		for i, v := range seq.Frame(f) {
			buf[3*i], buf[3*i+1], buf[3*i+2] = v.X, v.Y, v.Z
		}
		if err = binary.Write(bw, byteorder, buf); err != nil {
			return
		}
	}
	return bw.Flush()
}

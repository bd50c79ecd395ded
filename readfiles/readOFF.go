package readfiles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/godeform/mesh"
)

// Header counts are untrusted, arrays grow as lines are actually read
const offPrealloc = 1 << 16

// From here: https://segeval.cs.princeton.edu/public/off_format.html
type OFFHeader struct {
	Nv, Nf, Ne int
	Color      bool // COFF: four color fields after each vertex
}

// ReadOFF loads a triangle mesh from an OFF file, optionally negating Z.
func ReadOFF(filename string, flipZ bool) (m *mesh.Mesh, err error) {
	var file *os.File
	if file, err = os.Open(filename); err != nil {
		err = fmt.Errorf("unable to open file %s: %w", filename, err)
		return
	}
	defer file.Close()
	if m, err = DecodeOFF(bufio.NewReader(file), flipZ); err != nil {
		err = fmt.Errorf("reading %s: %w", filename, err)
	}
	return
}

func DecodeOFF(reader *bufio.Reader, flipZ bool) (m *mesh.Mesh, err error) {
	var (
		hdr   OFFHeader
		verts mesh.Pose
		tris  []mesh.Triangle
	)
	if hdr, err = readOFFHeader(reader); err != nil {
		return
	}
	if verts, err = readOFFVertices(reader, hdr.Nv); err != nil {
		return
	}
	if tris, err = readOFFFaces(reader, hdr.Nf); err != nil {
		return
	}
	if flipZ {
		verts = verts.FlipZ()
	}
	return mesh.NewMesh(verts, tris)
}

func readOFFHeader(reader *bufio.Reader) (hdr OFFHeader, err error) {
	var line string
	if line, err = nextLine(reader); err != nil {
		return
	}
	fields := strings.Fields(line)
	switch fields[0] {
	case "OFF":
	case "COFF":
		hdr.Color = true
	default:
		err = fmt.Errorf("not an OFF file, header is [%s]", line)
		return
	}
	// Counts may follow the keyword on the same line
	counts := strings.Join(fields[1:], " ")
	if len(fields) == 1 {
		if counts, err = nextLine(reader); err != nil {
			return
		}
	}
	var n int
	if n, err = fmt.Sscanf(counts, "%d %d %d", &hdr.Nv, &hdr.Nf, &hdr.Ne); err != nil && n < 2 {
		err = fmt.Errorf("unable to read element counts from [%s]: %w", counts, err)
		return
	}
	err = nil
	if hdr.Nv < 0 || hdr.Nf < 0 {
		err = fmt.Errorf("negative element counts in [%s]", counts)
	}
	return
}

func readOFFVertices(reader *bufio.Reader, Nv int) (verts mesh.Pose, err error) {
	var (
		line    string
		x, y, z float64
	)
	verts = make(mesh.Pose, 0, min(Nv, offPrealloc))
	for i := 0; i < Nv; i++ {
		if line, err = nextLine(reader); err != nil {
			err = fmt.Errorf("vertex %d: %w", i, err)
			return
		}
		if _, err = fmt.Sscanf(line, "%f %f %f", &x, &y, &z); err != nil {
			err = fmt.Errorf("unable to read coordinates of vertex %d from [%s]: %w", i, line, err)
			return
		}
		verts = append(verts, r3.Vec{X: x, Y: y, Z: z})
	}
	return
}

func readOFFFaces(reader *bufio.Reader, Nf int) (tris []mesh.Triangle, err error) {
	var (
		line       string
		nv         int
		v1, v2, v3 int
	)
	tris = make([]mesh.Triangle, 0, min(Nf, offPrealloc))
	for k := 0; k < Nf; k++ {
		if line, err = nextLine(reader); err != nil {
			err = fmt.Errorf("face %d: %w", k, err)
			return
		}
		if _, err = fmt.Sscanf(line, "%d", &nv); err != nil {
			err = fmt.Errorf("unable to read vertex count of face %d from [%s]: %w", k, line, err)
			return
		}
		if nv != 3 {
			err = &mesh.TopologyMismatchError{
				Reason: fmt.Sprintf("face %d has %d vertices, only triangles are supported", k, nv)}
			return
		}
		if _, err = fmt.Sscanf(line, "%d %d %d %d", &nv, &v1, &v2, &v3); err != nil {
			err = fmt.Errorf("unable to read vertices of face %d from [%s]: %w", k, line, err)
			return
		}
		tris = append(tris, mesh.Triangle{v1, v2, v3})
	}
	return
}

// nextLine returns the next line that is neither blank nor a # comment.
func nextLine(reader *bufio.Reader) (line string, err error) {
	for {
		var raw string
		raw, err = reader.ReadString('\n')
		if ind := strings.Index(raw, "#"); ind >= 0 {
			raw = raw[:ind]
		}
		line = strings.TrimSpace(raw)
		if line != "" {
			err = nil
			return
		}
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return
		}
	}
}

// WriteOFF saves a pose of m in OFF format.
func WriteOFF(filename string, m *mesh.Mesh, pose mesh.Pose) (err error) {
	var file *os.File
	if file, err = os.Create(filename); err != nil {
		return
	}
	if err = EncodeOFF(file, m, pose); err != nil {
		file.Close()
		return
	}
	return file.Close()
}

func EncodeOFF(w io.Writer, m *mesh.Mesh, pose mesh.Pose) (err error) {
	if err = m.CheckPose(pose); err != nil {
		return
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "OFF\n%d %d 0\n", len(pose), m.NumTriangles())
	for _, v := range pose {
		fmt.Fprintf(bw, "%.17g %.17g %.17g\n", v.X, v.Y, v.Z)
	}
	for _, tri := range m.Triangles() {
		fmt.Fprintf(bw, "3 %d %d %d\n", tri[0], tri[1], tri[2])
	}
	return bw.Flush()
}

package filters

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// flateDecodeParams holds FlateDecode's (and, identically, LZWDecode's)
// /DecodeParms predictor fields. Ported from
// reader/parser/filters/flateDecode.go's post-processing, which this
// module's stream pipeline otherwise lacked entirely (model.Filters.DecodeReader
// was referenced by three call sites but never defined in the teacher tree).
type flateDecodeParams struct {
	predictor            int
	colors, bpc, columns int
}

func processFlateParams(params Params) flateDecodeParams {
	predictor := params["Predictor"]
	colors := params["Colors"]
	if colors == 0 {
		colors = 1
	}
	bpc := params["BitsPerComponent"]
	if bpc == 0 {
		bpc = 8
	}
	columns := params["Columns"]
	if columns == 0 {
		columns = 1
	}
	return flateDecodeParams{predictor: predictor, colors: colors, bpc: bpc, columns: columns}
}

func (f flateDecodeParams) rowSize() int {
	return f.bpc * f.colors * f.columns / 8
}

func flateDecoder(params flateDecodeParams, src io.Reader) (io.Reader, error) {
	rc, err := zlib.NewReader(src)
	if err != nil {
		return nil, err
	}
	return params.decodePostProcess(rc)
}

// decodePostProcess reverses the TIFF (predictor 2) or PNG (predictors
// 10-15) row-prediction filter applied before compression, per ISO 32000-1
// 7.4.4.4.
func (f flateDecodeParams) decodePostProcess(r io.Reader) (io.Reader, error) {
	if f.predictor == 0 || f.predictor == 1 {
		return r, nil
	}

	bytesPerPixel := (f.bpc*f.colors + 7) / 8
	rowSize := f.rowSize()
	if f.predictor != 2 {
		rowSize++ // PNG prediction prefixes each row with a filter-type byte
	}

	cr := make([]byte, rowSize)
	pr := make([]byte, rowSize)
	var out []byte

	for {
		_, err := io.ReadFull(r, cr)
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, err
		}
		d, err := processRow(pr, cr, f.predictor, f.colors, bytesPerPixel)
		if err != nil {
			return nil, err
		}
		out = append(out, d...)
		pr, cr = cr, pr
	}

	if f.rowSize() > 0 && len(out)%f.rowSize() != 0 {
		return nil, fmt.Errorf("predictor postprocessing failed (%d bytes, row size %d)", len(out), f.rowSize())
	}
	return bytes.NewReader(out), nil
}

func processRow(pr, cr []byte, predictor, colors, bytesPerPixel int) ([]byte, error) {
	if predictor == 2 { // TIFF
		return applyHorizontalDiff(cr, colors), nil
	}

	// PNG prediction: first byte of cr is the per-row filter type.
	cdat := cr[1:]
	pdat := pr[1:]
	switch int(cr[0]) {
	case 0: // None
	case 1: // Sub
		for i := bytesPerPixel; i < len(cdat); i++ {
			cdat[i] += cdat[i-bytesPerPixel]
		}
	case 2: // Up
		for i, p := range pdat {
			cdat[i] += p
		}
	case 3: // Average
		for i := 0; i < bytesPerPixel && i < len(cdat); i++ {
			cdat[i] += pdat[i] / 2
		}
		for i := bytesPerPixel; i < len(cdat); i++ {
			cdat[i] += byte((int(cdat[i-bytesPerPixel]) + int(pdat[i])) / 2)
		}
	case 4: // Paeth
		filterPaeth(cdat, pdat, bytesPerPixel)
	default:
		return nil, fmt.Errorf("unknown PNG predictor row filter %d", cr[0])
	}
	return cdat, nil
}

func applyHorizontalDiff(row []byte, colors int) []byte {
	for i := 1; i < len(row)/colors; i++ {
		for j := 0; j < colors; j++ {
			row[i*colors+j] += row[(i-1)*colors+j]
		}
	}
	return row
}

func filterPaeth(cdat, pdat []byte, bytesPerPixel int) {
	var a, b, c, pa, pb, pc int32
	for i := 0; i < bytesPerPixel; i++ {
		a, c = 0, 0
		for j := i; j < len(cdat); j += bytesPerPixel {
			b = int32(pdat[j])
			pa = abs32(b - c)
			pb = abs32(a - c)
			pc = abs32(a + b - 2*c)
			switch {
			case pa <= pb && pa <= pc:
				// a unchanged
			case pb <= pc:
				a = b
			default:
				a = c
			}
			a += int32(cdat[j])
			a &= 0xff
			cdat[j] = byte(a)
			c = b
		}
	}
}

func abs32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}

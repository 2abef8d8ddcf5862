package workload

import (
	"encoding/csv"
	"h3-perf/internal/bencherr"
	"h3-perf/internal/model"
	"h3-perf/internal/query"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// Delimiter：工作负载文件字段分隔符
const Delimiter = ';'

// RecordsHeader：采样记录文件列
var RecordsHeader = func() []string {
	h := []string{"id", "lat", "lng"}
	for i := 0; i < model.Resolutions; i++ {
		h = append(h, query.CellColumn(i))
	}
	return h
}()

// CorpusHeader：查询语料文件列
var CorpusHeader = []string{"id", "type", "query", "resolution", "lat", "lng"}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func newWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter
	return cw
}

func newReader(r io.Reader, fields int) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = Delimiter
	cr.FieldsPerRecord = fields
	cr.ReuseRecord = true
	return cr
}

// EncodeRecords：写出表头与每条采样记录
func EncodeRecords(w io.Writer, records []model.IndexedRecord) error {
	cw := newWriter(w)
	if err := cw.Write(RecordsHeader); err != nil {
		return err
	}
	row := make([]string, len(RecordsHeader))
	for _, r := range records {
		row[0] = strconv.FormatInt(r.ID, 10)
		row[1] = formatFloat(r.Point.Lat)
		row[2] = formatFloat(r.Point.Lng)
		copy(row[3:], r.Cells[:])
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeRecords：跳过一行表头后逐行解析；列数不符或数值非法返回 InvalidInputError
func DecodeRecords(r io.Reader) ([]model.IndexedRecord, error) {
	cr := newReader(r, len(RecordsHeader))
	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, bencherr.Wrap(bencherr.KindInvalidInput, "line 1", "records header", err)
	}
	var out []model.IndexedRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		ref := "line " + strconv.Itoa(line)
		if err != nil {
			return nil, bencherr.Wrap(bencherr.KindInvalidInput, ref, "records row", err)
		}
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, bencherr.Wrap(bencherr.KindInvalidInput, ref, "id", err)
		}
		p, err := parsePoint(row[1], row[2])
		if err != nil {
			return nil, bencherr.Wrap(bencherr.KindInvalidInput, ref, "point", err)
		}
		rec := model.IndexedRecord{ID: id, Point: p}
		copy(rec.Cells[:], row[3:])
		out = append(out, rec)
	}
}

// EncodeCorpus：写出表头与语料，type 列为策略标签
func EncodeCorpus(w io.Writer, corpus []model.QueryDescriptor) error {
	cw := newWriter(w)
	if err := cw.Write(CorpusHeader); err != nil {
		return err
	}
	for _, d := range corpus {
		if err := cw.Write([]string{
			d.ID,
			string(d.Strategy),
			d.Query,
			strconv.Itoa(d.Resolution),
			formatFloat(d.Point.Lat),
			formatFloat(d.Point.Lng),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeCorpus：逐行按 (type, resolution, lat, lng) 重建描述符
// 约束：query 列必须与重建结果一致，否则视为被篡改或方言不符
func DecodeCorpus(r io.Reader, b *query.Builder) ([]model.QueryDescriptor, error) {
	cr := newReader(r, len(CorpusHeader))
	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, bencherr.Wrap(bencherr.KindInvalidInput, "line 1", "corpus header", err)
	}
	var out []model.QueryDescriptor
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		ref := "line " + strconv.Itoa(line)
		if err != nil {
			return nil, bencherr.Wrap(bencherr.KindInvalidInput, ref, "corpus row", err)
		}
		id := row[0]
		if id == "" {
			return nil, bencherr.InvalidInput(ref, "empty id")
		}
		s, err := model.ParseStrategy(row[1])
		if err != nil {
			return nil, bencherr.Wrap(bencherr.KindInvalidInput, ref, "type", err)
		}
		res, err := strconv.Atoi(row[3])
		if err != nil {
			return nil, bencherr.Wrap(bencherr.KindInvalidInput, ref, "resolution", err)
		}
		p, err := parsePoint(row[4], row[5])
		if err != nil {
			return nil, bencherr.Wrap(bencherr.KindInvalidInput, ref, "point", err)
		}
		d, err := b.Rebuild(id, s, res, p)
		if err != nil {
			return nil, bencherr.Wrap(bencherr.KindInvalidInput, ref, "descriptor", err)
		}
		if d.Query != row[2] {
			return nil, bencherr.InvalidInput(ref, "query text of %s does not match its %s descriptor", id, b.Dialect().Name())
		}
		out = append(out, d)
	}
}

func parsePoint(lat, lng string) (model.GeoPoint, error) {
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return model.GeoPoint{}, err
	}
	ln, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return model.GeoPoint{}, err
	}
	p := model.GeoPoint{Lat: la, Lng: ln}
	return p, p.Validate()
}

// staged：已写完并关闭、等待改名的临时文件
type staged struct {
	path string
	tmp  string
}

// stage：在目标同目录写临时文件；失败时不留下临时文件
func stage(path string, encode func(io.Writer) error) (staged, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return staged{}, bencherr.IO(path, "create directory", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return staged{}, bencherr.IO(path, "create temp file", err)
	}
	tmp := f.Name()
	if err := encode(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return staged{}, bencherr.IO(path, "encode", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return staged{}, bencherr.IO(path, "close", err)
	}
	return staged{path: path, tmp: tmp}, nil
}

// writeFilesAtomic：全部编码成功后才依次改名，任一编码失败时目标文件均保持原样
func writeFilesAtomic(paths []string, encoders []func(io.Writer) error) error {
	done := make([]staged, 0, len(paths))
	defer func() {
		for _, st := range done {
			os.Remove(st.tmp)
		}
	}()
	for i, path := range paths {
		st, err := stage(path, encoders[i])
		if err != nil {
			return err
		}
		done = append(done, st)
	}
	for _, st := range done {
		if err := os.Rename(st.tmp, st.path); err != nil {
			return bencherr.IO(st.path, "rename", err)
		}
	}
	return nil
}

func writeFileAtomic(path string, encode func(io.Writer) error) error {
	return writeFilesAtomic([]string{path}, []func(io.Writer) error{encode})
}

// WriteRecordsFile：原子写出采样记录文件
func WriteRecordsFile(path string, records []model.IndexedRecord) error {
	return writeFileAtomic(path, func(w io.Writer) error { return EncodeRecords(w, records) })
}

// WriteCorpusFile：原子写出语料文件
func WriteCorpusFile(path string, corpus []model.QueryDescriptor) error {
	return writeFileAtomic(path, func(w io.Writer) error { return EncodeCorpus(w, corpus) })
}

// WriteWorkload：记录文件与语料文件成对写出，不会出现新记录配旧语料
func WriteWorkload(paths Paths, records []model.IndexedRecord, corpus []model.QueryDescriptor) error {
	return writeFilesAtomic(
		[]string{paths.Records, paths.Corpus},
		[]func(io.Writer) error{
			func(w io.Writer) error { return EncodeRecords(w, records) },
			func(w io.Writer) error { return EncodeCorpus(w, corpus) },
		},
	)
}

func ReadRecordsFile(path string) ([]model.IndexedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, bencherr.IO(path, "open records", err)
	}
	defer f.Close()
	return DecodeRecords(f)
}

func ReadCorpusFile(path string, b *query.Builder) ([]model.QueryDescriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, bencherr.IO(path, "open corpus", err)
	}
	defer f.Close()
	return DecodeCorpus(f, b)
}

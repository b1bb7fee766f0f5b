package shogi

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

type MoveEntry struct {
	Ply      int32  `parquet:"name=ply, type=INT32"`
	Player   string `parquet:"name=player, type=BYTE_ARRAY, convertedtype=UTF8"`
	Notation string `parquet:"name=notation, type=BYTE_ARRAY, convertedtype=UTF8"`
}

type GameRecord struct {
	GameID    string      `parquet:"name=game_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	BlackName string      `parquet:"name=black_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	WhiteName string      `parquet:"name=white_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Result    string      `parquet:"name=result, type=BYTE_ARRAY, convertedtype=UTF8"`
	PlyCount  int32       `parquet:"name=ply_count, type=INT32"`
	Moves     []MoveEntry `parquet:"name=moves, type=LIST"`
}

// RecordBook collects accepted moves in memory. It implements Recorder.
type RecordBook struct {
	moves []MoveEntry
}

func (rb *RecordBook) Record(ply int, player Player, notation string) error {
	if ply != len(rb.moves)+1 {
		return fmt.Errorf("unexpected ply %d after %d recorded moves", ply, len(rb.moves))
	}
	rb.moves = append(rb.moves, MoveEntry{Ply: int32(ply), Player: player.String(), Notation: notation})
	return nil
}

func (rb *RecordBook) Moves() []MoveEntry {
	out := make([]MoveEntry, len(rb.moves))
	copy(out, rb.moves)
	return out
}

func (rb *RecordBook) Reset() {
	rb.moves = nil
}

func (rb *RecordBook) Build(gameID, blackName, whiteName, result string) GameRecord {
	return GameRecord{
		GameID:    gameID,
		BlackName: blackName,
		WhiteName: whiteName,
		Result:    result,
		PlyCount:  int32(len(rb.moves)),
		Moves:     rb.Moves(),
	}
}

type ParquetSchema struct {
	Name   string         `json:"name"`
	Fields []ParquetField `json:"fields"`
}

type ParquetField struct {
	Name     string      `json:"name"`
	Type     interface{} `json:"type"`
	Nullable bool        `json:"nullable"`
}

//go:embed schema/record_schema.json
var recordSchemaJSON []byte

func WriteParquet(path string, records <-chan GameRecord, parallel int64) error {
	schema, err := loadParquetSchema(recordSchemaJSON)
	if err != nil {
		return err
	}
	if err := validateSchema(schema, GameRecord{}); err != nil {
		return err
	}

	fileWriter, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer fileWriter.Close()

	parquetWriter, err := writer.NewParquetWriter(fileWriter, new(GameRecord), parallel)
	if err != nil {
		return err
	}
	parquetWriter.CompressionType = parquet.CompressionCodec_SNAPPY

	for record := range records {
		if err := parquetWriter.Write(record); err != nil {
			return err
		}
	}
	if err := parquetWriter.WriteStop(); err != nil {
		return err
	}
	return fileWriter.Close()
}

// WriteRecords writes a fixed set of records to path.
func WriteRecords(path string, records ...GameRecord) error {
	ch := make(chan GameRecord, len(records))
	for _, record := range records {
		ch <- record
	}
	close(ch)
	return WriteParquet(path, ch, 1)
}

func ReadParquet(path string, parallel int64) ([]GameRecord, error) {
	absPath := path
	if !filepath.IsAbs(path) {
		if resolved, err := filepath.Abs(path); err == nil {
			absPath = resolved
		}
	}
	fileReader, err := local.NewLocalFileReader(absPath)
	if err != nil {
		return nil, err
	}
	defer fileReader.Close()

	parquetReader, err := reader.NewParquetReader(fileReader, new(GameRecord), parallel)
	if err != nil {
		return nil, err
	}
	defer parquetReader.ReadStop()

	num := int(parquetReader.GetNumRows())
	records := make([]GameRecord, 0, num)
	batchSize := 1024
	for offset := 0; offset < num; offset += batchSize {
		remain := num - offset
		if remain < batchSize {
			batchSize = remain
		}
		batch := make([]GameRecord, batchSize)
		if err := parquetReader.Read(&batch); err != nil {
			return nil, err
		}
		records = append(records, batch...)
	}
	return records, nil
}

func loadParquetSchema(data []byte) (ParquetSchema, error) {
	var schema ParquetSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return ParquetSchema{}, err
	}
	return schema, nil
}

func validateSchema(schema ParquetSchema, sample any) error {
	schemaFields := make(map[string]struct{}, len(schema.Fields))
	for _, field := range schema.Fields {
		schemaFields[field.Name] = struct{}{}
	}
	structFields := structParquetFieldNames(sample)
	missing := diffKeys(schemaFields, structFields)
	extra := diffKeys(structFields, schemaFields)
	if len(missing) > 0 || len(extra) > 0 {
		return fmt.Errorf("parquet schema mismatch: missing=%v extra=%v", missing, extra)
	}
	return nil
}

func structParquetFieldNames(sample any) map[string]struct{} {
	fields := map[string]struct{}{}
	v := reflect.TypeOf(sample)
	for i := 0; i < v.NumField(); i++ {
		name := parseParquetName(v.Field(i).Tag.Get("parquet"))
		if name != "" {
			fields[name] = struct{}{}
		}
	}
	return fields
}

func parseParquetName(tag string) string {
	for _, part := range strings.Split(tag, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) == 2 && kv[0] == "name" {
			return kv[1]
		}
	}
	return ""
}

func diffKeys(a, b map[string]struct{}) []string {
	var diff []string
	for key := range a {
		if _, ok := b[key]; !ok {
			diff = append(diff, key)
		}
	}
	return diff
}

package shogi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// ErrUnsupportedMove marks KIF moves the engine cannot play: drops and
// promotions.
var ErrUnsupportedMove = errors.New("unsupported move")

type KIFPlayers struct {
	BlackName   string
	BlackRating int32
	WhiteName   string
	WhiteRating int32
}

// Replay is a KIF game reduced to origin+destination tokens. Moves stop at
// the first drop or promotion; Truncated reports whether that happened.
type Replay struct {
	Path      string
	Players   KIFPlayers
	Moves     []string
	Truncated bool
	Reason    string
	Result    string
}

var moveLineRe = regexp.MustCompile(`^\s*(\d+)\s+(.+?)\s+\(`)
var terminalLineRe = regexp.MustCompile(`^\s*(\d+)\s+(.+?)\s*$`)
var fromSquareRe = regexp.MustCompile(`\((\d)(\d)\)`)
var nameRatingRe = regexp.MustCompile(`^(.+?)\((\d+)\)$`)

func LoadReplay(path string) (*Replay, error) {
	lines, err := readKIFLines(path)
	if err != nil {
		return nil, err
	}
	replay, err := ReplayFromKIF(lines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	replay.Path = path
	return replay, nil
}

func ReplayFromKIF(lines []string) (*Replay, error) {
	if err := checkStandardStart(lines); err != nil {
		return nil, err
	}
	moves, unsupported, err := parseKIFMoves(lines)
	if err != nil {
		return nil, err
	}
	result, _ := parseResult(lines)
	replay := &Replay{
		Players: PlayersFromKIFLines(lines),
		Moves:   moves,
		Result:  result,
	}
	if unsupported != "" {
		replay.Truncated = true
		replay.Reason = unsupported
		replay.Result = "truncated"
	}
	return replay, nil
}

// Input returns an Input playing player's half of the replay. It reports
// io.EOF once that side has no moves left.
func (r *Replay) Input(player Player) Input {
	var moves []string
	for i, move := range r.Moves {
		if (i%2 == 0) == (player == Black) {
			moves = append(moves, move)
		}
	}
	return &replayInput{player: player, moves: moves}
}

type replayInput struct {
	player Player
	moves  []string
	next   int
}

func (ri *replayInput) Player() Player {
	return ri.player
}

func (ri *replayInput) AskForNextMove(ctx context.Context, _ BoardState) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if ri.next >= len(ri.moves) {
		return "", io.EOF
	}
	move := ri.moves[ri.next]
	ri.next++
	return move, nil
}

func readKIFLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := decodeKIF(data)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	return lines, nil
}

func decodeKIF(data []byte) (string, error) {
	if bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		data = data[3:]
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	reader := transform.NewReader(bytes.NewReader(data), japanese.ShiftJIS.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(decoded) {
		return "", errors.New("failed to decode Shift-JIS KIF")
	}
	return string(decoded), nil
}

func checkStandardStart(lines []string) error {
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if strings.HasPrefix(trim, "手合割") && !strings.Contains(trim, "平手") {
			return fmt.Errorf("handicap games are not supported: %s", trim)
		}
		if strings.HasPrefix(trim, "|") && strings.HasSuffix(trim, "|") {
			return errors.New("custom starting positions are not supported")
		}
	}
	return nil
}

// parseKIFMoves returns the playable prefix of the game and, when it stops
// early, the reason.
func parseKIFMoves(lines []string) ([]string, string, error) {
	var moves []string
	var prevDest *Coordinate
	for i, line := range lines {
		match := moveLineRe.FindStringSubmatch(line)
		if len(match) == 0 {
			continue
		}
		moveText := strings.TrimSpace(match[2])
		if moveText == "" {
			continue
		}
		move, dest, end, err := parseKIFMoveToken(moveText, prevDest)
		if errors.Is(err, ErrUnsupportedMove) {
			return moves, fmt.Sprintf("line %d: %v", i+1, err), nil
		}
		if err != nil {
			return nil, "", fmt.Errorf("line %d: %w", i+1, err)
		}
		if end {
			break
		}
		moves = append(moves, move)
		prevDest = dest
	}
	return moves, "", nil
}

func parseKIFMoveToken(token string, prevDest *Coordinate) (string, *Coordinate, bool, error) {
	if isTerminalMove(token) {
		return "", nil, true, nil
	}
	work := strings.TrimSpace(token)
	var dest Coordinate
	if strings.HasPrefix(work, "同") {
		if prevDest == nil {
			return "", nil, false, errors.New("same-square move without previous destination")
		}
		dest = *prevDest
		work = strings.TrimSpace(strings.TrimLeft(strings.TrimPrefix(work, "同"), " 　"))
	} else {
		runes := []rune(work)
		if len(runes) < 2 {
			return "", nil, false, fmt.Errorf("invalid move token: %s", token)
		}
		file, ok := parseFileRune(runes[0])
		if !ok {
			return "", nil, false, fmt.Errorf("invalid destination file in %s", token)
		}
		rank, ok := parseRankRune(runes[1])
		if !ok {
			return "", nil, false, fmt.Errorf("invalid destination rank in %s", token)
		}
		dest = Coordinate{File: file, Rank: rank}
		work = strings.TrimSpace(string(runes[2:]))
	}

	from, hasFrom := parseFromSquare(work)
	if hasFrom {
		work = fromSquareRe.ReplaceAllString(work, "")
	}
	if strings.Contains(work, "打") {
		return "", nil, false, fmt.Errorf("drop %s: %w", token, ErrUnsupportedMove)
	}
	if strings.Contains(work, "不成") {
		work = strings.Replace(work, "不成", "", 1)
	} else if strings.Contains(work, "成") && !strings.HasPrefix(work, "成") {
		return "", nil, false, fmt.Errorf("promotion %s: %w", token, ErrUnsupportedMove)
	}
	promoted, err := parsePiece(work)
	if err != nil {
		return "", nil, false, err
	}
	if promoted {
		return "", nil, false, fmt.Errorf("promoted piece %s: %w", token, ErrUnsupportedMove)
	}
	if !hasFrom {
		return "", nil, false, errors.New("missing source square")
	}
	return from.String() + dest.String(), &dest, false, nil
}

func isTerminalMove(token string) bool {
	switch token {
	case "投了", "中断", "持将棋", "千日手", "詰み", "切れ負け", "反則勝ち", "反則負け", "入玉勝ち", "勝ち宣言":
		return true
	default:
		return false
	}
}

func parseFromSquare(text string) (Coordinate, bool) {
	match := fromSquareRe.FindStringSubmatch(text)
	if len(match) != 3 {
		return Coordinate{}, false
	}
	c := Coordinate{File: int(match[1][0] - '0'), Rank: int(match[2][0] - '0')}
	if !c.Valid() {
		return Coordinate{}, false
	}
	return c, true
}

func parseFileRune(r rune) (int, bool) {
	if r >= '1' && r <= '9' {
		return int(r - '0'), true
	}
	if r >= '１' && r <= '９' {
		return int(r-'１') + 1, true
	}
	return 0, false
}

func parseRankRune(r rune) (int, bool) {
	n, ok := japaneseNumber(r)
	if !ok || n > boardSize {
		return 0, false
	}
	return n, true
}

func japaneseNumber(r rune) (int, bool) {
	switch r {
	case '一':
		return 1, true
	case '二':
		return 2, true
	case '三':
		return 3, true
	case '四':
		return 4, true
	case '五':
		return 5, true
	case '六':
		return 6, true
	case '七':
		return 7, true
	case '八':
		return 8, true
	case '九':
		return 9, true
	default:
		return 0, false
	}
}

type kifPieceDef struct {
	name     string
	promoted bool
}

var kifPieceDefs = []kifPieceDef{
	{name: "成銀", promoted: true},
	{name: "成桂", promoted: true},
	{name: "成香", promoted: true},
	{name: "と", promoted: true},
	{name: "馬", promoted: true},
	{name: "龍", promoted: true},
	{name: "竜", promoted: true},
	{name: "王"},
	{name: "玉"},
	{name: "飛"},
	{name: "角"},
	{name: "金"},
	{name: "銀"},
	{name: "桂"},
	{name: "香"},
	{name: "歩"},
}

func parsePiece(text string) (bool, error) {
	clean := strings.TrimSpace(text)
	for _, def := range kifPieceDefs {
		if strings.HasPrefix(clean, def.name) {
			return def.promoted, nil
		}
	}
	return false, fmt.Errorf("unknown piece in %s", text)
}

func LoadKIFPlayers(path string) (KIFPlayers, error) {
	lines, err := readKIFLines(path)
	if err != nil {
		return KIFPlayers{}, err
	}
	return PlayersFromKIFLines(lines), nil
}

func PlayersFromKIFLines(lines []string) KIFPlayers {
	blackName, blackRating := parseNameRating(headerValue(lines, "先手"))
	whiteName, whiteRating := parseNameRating(headerValue(lines, "後手"))
	return KIFPlayers{
		BlackName:   blackName,
		BlackRating: blackRating,
		WhiteName:   whiteName,
		WhiteRating: whiteRating,
	}
}

func headerValue(lines []string, key string) string {
	prefixes := []string{key + "：", key + ":"}
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		for _, prefix := range prefixes {
			if strings.HasPrefix(trim, prefix) {
				return strings.TrimSpace(strings.TrimPrefix(trim, prefix))
			}
		}
	}
	return ""
}

func parseNameRating(raw string) (string, int32) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", 0
	}
	match := nameRatingRe.FindStringSubmatch(raw)
	if len(match) == 3 {
		var value int
		_, _ = fmt.Sscanf(match[2], "%d", &value)
		return strings.TrimSpace(match[1]), int32(value)
	}
	return raw, 0
}

func parseResult(lines []string) (string, string) {
	terminal, ply := findTerminalMove(lines)
	if terminal == "" {
		return "unknown", ""
	}
	return resultFromTerminal(terminal, ply), terminal
}

func findTerminalMove(lines []string) (string, int) {
	ply := 0
	for _, line := range lines {
		match := moveLineRe.FindStringSubmatch(line)
		if len(match) == 0 {
			// Terminal markers may come without a clock parenthesis.
			match = terminalLineRe.FindStringSubmatch(line)
		}
		if len(match) == 0 {
			continue
		}
		moveText := strings.TrimSpace(match[2])
		if moveText == "" {
			continue
		}
		ply++
		if isTerminalMove(moveText) {
			return moveText, ply
		}
	}
	return "", 0
}

func resultFromTerminal(token string, ply int) string {
	switch token {
	case "中断":
		return "abort"
	case "持将棋", "千日手":
		return "draw"
	case "反則勝ち", "詰み":
		return winnerFromPly(ply)
	case "投了", "切れ負け", "反則負け":
		return winnerFromPly(ply + 1)
	default:
		return "unknown"
	}
}

// winnerFromPly names the side that made move number ply.
func winnerFromPly(ply int) string {
	if ply%2 == 1 {
		return Black.String() + "_win"
	}
	return White.String() + "_win"
}

func CollectKIF(root string) ([]string, error) {
	var files []string
	if err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".kif") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

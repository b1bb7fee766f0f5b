package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"shogi/pkg/server"
)

const startSFEN = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

type gameBody struct {
	ID      string `json:"id"`
	Black   string `json:"black"`
	White   string `json:"white"`
	Outcome string `json:"outcome"`
	SFEN    string `json:"sfen"`
}

type moveBody struct {
	Result  string   `json:"result"`
	Outcome string   `json:"outcome"`
	Game    gameBody `json:"game"`
	Error   string   `json:"error"`
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	manager := server.NewManager()
	t.Cleanup(func() { manager.Close() })
	return server.NewApp(manager)
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func createGame(t *testing.T, app *fiber.App) gameBody {
	t.Helper()
	status, data := doJSON(t, app, http.MethodPost, "/api/game", server.CreateRequest{Black: "alice", White: "bob"})
	if status != fiber.StatusCreated {
		t.Fatalf("create: got status %d body %s", status, data)
	}
	var game gameBody
	if err := json.Unmarshal(data, &game); err != nil {
		t.Fatalf("decode game: %v", err)
	}
	return game
}

func TestCreateAndGetGame(t *testing.T) {
	app := newTestApp(t)
	game := createGame(t, app)
	if game.ID == "" || game.Black != "alice" || game.White != "bob" {
		t.Fatalf("unexpected game: %+v", game)
	}
	if game.SFEN != startSFEN || game.Outcome != "in_progress" {
		t.Fatalf("unexpected start: %+v", game)
	}

	status, data := doJSON(t, app, http.MethodGet, "/api/game/"+game.ID, nil)
	if status != fiber.StatusOK {
		t.Fatalf("get: got status %d", status)
	}
	var got gameBody
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != game.ID {
		t.Fatalf("id: got %s want %s", got.ID, game.ID)
	}

	status, data = doJSON(t, app, http.MethodGet, "/api/games", nil)
	if status != fiber.StatusOK {
		t.Fatalf("list: got status %d", status)
	}
	var list struct {
		Games []string `json:"games"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Games) != 1 || list.Games[0] != game.ID {
		t.Fatalf("list: got %v", list.Games)
	}
}

func TestMoveEndpoint(t *testing.T) {
	app := newTestApp(t)
	game := createGame(t, app)
	path := "/api/game/" + game.ID + "/move"

	cases := []struct {
		name       string
		req        server.MoveRequest
		wantStatus int
		wantResult string
	}{
		{"out of turn", server.MoveRequest{Player: "white", Move: "3c3d"}, fiber.StatusUnprocessableEntity, "NotPlayersTurn"},
		{"not own piece", server.MoveRequest{Player: "black", Move: "3c3d"}, fiber.StatusUnprocessableEntity, "NotPlayersPiece"},
		{"friendly square", server.MoveRequest{Player: "black", Move: "2h2g"}, fiber.StatusUnprocessableEntity, "InvalidOperation"},
		{"valid", server.MoveRequest{Player: "black", Move: "7g7f"}, fiber.StatusOK, "ValidOperation"},
		{"reply", server.MoveRequest{Player: "white", Move: "3c3d"}, fiber.StatusOK, "ValidOperation"},
	}
	for _, tc := range cases {
		status, data := doJSON(t, app, http.MethodPost, path, tc.req)
		if status != tc.wantStatus {
			t.Fatalf("%s: got status %d want %d body %s", tc.name, status, tc.wantStatus, data)
		}
		var body moveBody
		if err := json.Unmarshal(data, &body); err != nil {
			t.Fatalf("%s: decode: %v", tc.name, err)
		}
		if body.Result != tc.wantResult {
			t.Fatalf("%s: got %s want %s", tc.name, body.Result, tc.wantResult)
		}
	}

	_, data := doJSON(t, app, http.MethodGet, "/api/game/"+game.ID, nil)
	var got gameBody
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := "lnsgkgsnl/1r5b1/pppppp1pp/6p2/9/2P6/PP1PPPPPP/1B5R1/LNSGKGSNL b - 3"
	if got.SFEN != want {
		t.Fatalf("sfen: got %s want %s", got.SFEN, want)
	}
}

func TestMoveEndpointErrors(t *testing.T) {
	app := newTestApp(t)
	game := createGame(t, app)

	status, _ := doJSON(t, app, http.MethodPost, "/api/game/"+game.ID+"/move", server.MoveRequest{Player: "black", Move: "7g7"})
	if status != fiber.StatusBadRequest {
		t.Fatalf("malformed move: got status %d", status)
	}
	status, _ = doJSON(t, app, http.MethodPost, "/api/game/"+game.ID+"/move", server.MoveRequest{Player: "red", Move: "7g7f"})
	if status != fiber.StatusBadRequest {
		t.Fatalf("bad player: got status %d", status)
	}
	status, _ = doJSON(t, app, http.MethodPost, "/api/game/missing/move", server.MoveRequest{Player: "black", Move: "7g7f"})
	if status != fiber.StatusNotFound {
		t.Fatalf("missing game: got status %d", status)
	}
	status, _ = doJSON(t, app, http.MethodGet, "/api/game/missing", nil)
	if status != fiber.StatusNotFound {
		t.Fatalf("missing game: got status %d", status)
	}
}

func TestResignEndpoint(t *testing.T) {
	app := newTestApp(t)
	game := createGame(t, app)
	path := "/api/game/" + game.ID

	status, _ := doJSON(t, app, http.MethodPost, path+"/resign", server.MoveRequest{Player: "white"})
	if status != fiber.StatusConflict {
		t.Fatalf("resign out of turn: got status %d", status)
	}
	status, data := doJSON(t, app, http.MethodPost, path+"/resign", server.MoveRequest{Player: "black"})
	if status != fiber.StatusOK {
		t.Fatalf("resign: got status %d body %s", status, data)
	}
	var body moveBody
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Outcome != "white_win" {
		t.Fatalf("outcome: got %s want white_win", body.Outcome)
	}
	status, _ = doJSON(t, app, http.MethodPost, path+"/move", server.MoveRequest{Player: "black", Move: "7g7f"})
	if status != fiber.StatusConflict {
		t.Fatalf("move after resign: got status %d", status)
	}
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	app := newTestApp(t)
	game := createGame(t, app)
	status, _ := doJSON(t, app, http.MethodGet, "/ws/game/"+game.ID, nil)
	if status != fiber.StatusUpgradeRequired {
		t.Fatalf("plain GET: got status %d want %d", status, fiber.StatusUpgradeRequired)
	}
}

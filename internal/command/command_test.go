package command

import "testing"

func TestParseAdd(t *testing.T) {
	cmd, err := Parse(`endpoint add /status '{"ok": true}'`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cmd.Kind != KindAdd {
		t.Fatalf("kind = %v", cmd.Kind)
	}
	if cmd.Method != "" || cmd.Path != "/status" {
		t.Errorf("method=%q path=%q", cmd.Method, cmd.Path)
	}
	if cmd.Body != `{"ok": true}` {
		t.Errorf("single-quoted JSON body mangled: %q", cmd.Body)
	}
}

func TestParseAddWithMethod(t *testing.T) {
	cmd, err := Parse(`ep add post /users '{"id": 1}'`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cmd.Kind != KindAdd || cmd.Method != "POST" || cmd.Path != "/users" {
		t.Errorf("cmd = %+v", cmd)
	}
}

func TestParseAddAliases(t *testing.T) {
	for _, alias := range []string{"a", "ad", "u", "up", "update"} {
		cmd, err := Parse("endpoint " + alias + " /x 'b'")
		if err != nil || cmd.Kind != KindAdd {
			t.Errorf("alias %q: cmd=%+v err=%v", alias, cmd, err)
		}
	}
}

func TestParseDelete(t *testing.T) {
	cmd, err := Parse("endpoint delete /users")
	if err != nil || cmd.Kind != KindDelete || cmd.Path != "/users" {
		t.Fatalf("cmd=%+v err=%v", cmd, err)
	}
	cmd, err = Parse("ep del GET /users")
	if err != nil || cmd.Kind != KindDelete || cmd.Method != "GET" {
		t.Fatalf("cmd=%+v err=%v", cmd, err)
	}
}

func TestParseList(t *testing.T) {
	cmd, err := Parse("endpoint list")
	if err != nil || cmd.Kind != KindList || cmd.Method != "" {
		t.Fatalf("cmd=%+v err=%v", cmd, err)
	}
	cmd, err = Parse("ep l get")
	if err != nil || cmd.Kind != KindList || cmd.Method != "GET" {
		t.Fatalf("cmd=%+v err=%v", cmd, err)
	}
}

func TestParseHelp(t *testing.T) {
	cmd, err := Parse("help")
	if err != nil || cmd.Kind != KindHelp {
		t.Fatalf("cmd=%+v err=%v", cmd, err)
	}
}

func TestParseUnknownVerb(t *testing.T) {
	cmd, err := Parse("frobnicate /x")
	if err == nil {
		t.Fatal("expected an error for an unknown verb")
	}
	if cmd.Kind != KindUnknown || cmd.Raw != "frobnicate /x" {
		t.Errorf("cmd = %+v", cmd)
	}
}

func TestParseArityErrors(t *testing.T) {
	for _, line := range []string{
		"endpoint",
		"endpoint add /x",
		"endpoint add",
		"endpoint delete",
		"endpoint list GET extra",
		"endpoint teleport /x",
	} {
		if _, err := Parse(line); err == nil {
			t.Errorf("Parse(%q) should fail", line)
		}
	}
}

func TestParseUnbalancedQuote(t *testing.T) {
	if _, err := Parse(`endpoint add /x '{"open`); err == nil {
		t.Fatal("expected an error for an unterminated quote")
	}
}

func TestBodyWithSpacesStaysOneToken(t *testing.T) {
	cmd, err := Parse(`endpoint add /msg 'hello "quoted" world'`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cmd.Body != `hello "quoted" world` {
		t.Errorf("body = %q", cmd.Body)
	}
}

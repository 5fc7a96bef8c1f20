// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/bureau-foundation/tickwire/lib/bridge"
	"github.com/bureau-foundation/tickwire/lib/clock"
	"github.com/bureau-foundation/tickwire/lib/emulator"
	"github.com/bureau-foundation/tickwire/lib/protocol"
)

func newTestExecutor(t *testing.T) (*Executor, *fakeEmulator, *bridge.Queue) {
	t.Helper()
	emu := newFakeEmulator()
	queue := &bridge.Queue{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewExecutor(emu, queue, logger), emu, queue
}

// run decodes frame, executes it and returns the reply without its
// trailing newline.
func run(t *testing.T, executor *Executor, frame string) string {
	t.Helper()
	cmd, err := protocol.Decode([]byte(frame))
	if err != nil {
		t.Fatalf("Decode(%s): %v", frame, err)
	}
	reply := executor.Execute(cmd)
	if len(reply) == 0 || reply[len(reply)-1] != '\n' {
		t.Fatalf("reply %q is not a line", reply)
	}
	return string(reply[:len(reply)-1])
}

func expectReply(t *testing.T, executor *Executor, frame, want string) {
	t.Helper()
	if got := run(t, executor, frame); got != want {
		t.Errorf("%s\n got: %s\nwant: %s", frame, got, want)
	}
}

func load(t *testing.T, executor *Executor) {
	t.Helper()
	expectReply(t, executor,
		`{"method":"load_rom","id":1,"path":"game.nes"}`,
		`{"ok":true,"result":{"console_type":2,"path":"game.nes","mode":"external_controlled"},"id":1}`)
}

func TestInitialState(t *testing.T) {
	t.Parallel()
	executor, _, _ := newTestExecutor(t)

	expectReply(t, executor,
		`{"method":"get_state","id":1}`,
		`{"ok":true,"result":{"rom_loaded":false,"console_type":-1,"mode":"free_running"},"id":1}`)
}

func TestLoadedOnlyCommandsBeforeLoad(t *testing.T) {
	t.Parallel()
	executor, emu, _ := newTestExecutor(t)

	frames := []string{
		`{"method":"step_frame","id":5}`,
		`{"method":"read_memory","id":5,"address":0}`,
		`{"method":"write_memory","id":5,"address":0,"value":1}`,
		`{"method":"set_input","id":5}`,
	}
	for _, frame := range frames {
		expectReply(t, executor, frame, `{"ok":false,"error":"no ROM loaded","id":5}`)
	}
	if emu.frames != 0 || len(emu.memory) != 0 {
		t.Error("emulator touched before load")
	}

	load(t, executor)
	for _, frame := range frames {
		if got := run(t, executor, frame); got[:10] != `{"ok":true` {
			t.Errorf("%s after load: %s", frame, got)
		}
	}
}

func TestLoadFailureResetsState(t *testing.T) {
	t.Parallel()
	executor, _, _ := newTestExecutor(t)

	expectReply(t, executor,
		`{"method":"load_rom","id":2,"path":"game.rom"}`,
		`{"ok":false,"error":"failed to load ROM","id":2}`)
	expectReply(t, executor,
		`{"method":"get_state","id":3}`,
		`{"ok":true,"result":{"rom_loaded":false,"console_type":-1,"mode":"free_running"},"id":3}`)

	// A failed load after a good one also drops back to unloaded.
	load(t, executor)
	expectReply(t, executor,
		`{"method":"load_rom","id":4,"path":"missing.gb"}`,
		`{"ok":false,"error":"failed to load ROM","id":4}`)
	if state := executor.State(); state != Unloaded() {
		t.Errorf("state = %+v, want unloaded", state)
	}
}

func TestLoadMissingPath(t *testing.T) {
	t.Parallel()
	executor, emu, _ := newTestExecutor(t)
	load(t, executor)

	expectReply(t, executor,
		`{"method":"load_rom","id":6}`,
		`{"ok":false,"error":"missing path","id":6}`)
	if len(emu.loads) != 1 || emu.stops != 0 {
		t.Errorf("missing path touched the emulator: loads=%v stops=%d", emu.loads, emu.stops)
	}
	if !executor.State().ROMLoaded {
		t.Error("missing path changed the control state")
	}
}

func TestLoadStopsRunningEmulation(t *testing.T) {
	t.Parallel()
	executor, emu, _ := newTestExecutor(t)
	load(t, executor)

	expectReply(t, executor,
		`{"method":"load_rom","id":2,"path":"game.sfc"}`,
		`{"ok":true,"result":{"console_type":0,"path":"game.sfc","mode":"external_controlled"},"id":2}`)
	if emu.stops != 1 {
		t.Errorf("stops = %d, want 1", emu.stops)
	}
	if state := executor.State(); state.ConsoleType != emulator.ConsoleSnes || !state.ExternalControl {
		t.Errorf("state = %+v", state)
	}
}

func TestStepClamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		count int
		want  int
	}{
		{5000, 3600},
		{3600, 3600},
		{10, 10},
		{1, 1},
		{0, 1},
		{-7, 1},
	}
	for _, test := range tests {
		executor, emu, _ := newTestExecutor(t)
		load(t, executor)
		cmd := &bridge.Command{Kind: bridge.StepTicks, ID: 9, Count: test.count}
		reply, err := protocol.ParseReply(executor.Execute(cmd))
		if err != nil || !reply.OK {
			t.Fatalf("count %d: reply %+v, err %v", test.count, reply, err)
		}
		if int(emu.frames) != test.want {
			t.Errorf("count %d ran %d frames, want %d", test.count, emu.frames, test.want)
		}
	}
}

func TestStepReply(t *testing.T) {
	t.Parallel()
	executor, _, _ := newTestExecutor(t)
	load(t, executor)

	expectReply(t, executor,
		`{"method":"step_frame","id":3,"count":2}`,
		`{"ok":true,"result":{"framesExecuted":2,"frameCount":2},"id":3}`)
	expectReply(t, executor,
		`{"method":"step_frame","id":4}`,
		`{"ok":true,"result":{"framesExecuted":1,"frameCount":3},"id":4}`)
}

func TestStepNoConsole(t *testing.T) {
	t.Parallel()
	executor, emu, _ := newTestExecutor(t)
	load(t, executor)
	emu.noConsole = true

	expectReply(t, executor,
		`{"method":"step_frame","id":3}`,
		`{"ok":false,"error":"no active console","id":3}`)
}

func TestReadMemory(t *testing.T) {
	t.Parallel()
	executor, emu, _ := newTestExecutor(t)
	load(t, executor)
	for i := range 300 {
		emu.memory[uint32(0x100+i)] = uint8(i)
	}

	expectReply(t, executor,
		`{"method":"read_memory","id":1,"address":258}`,
		`{"ok":true,"result":{"value":2},"id":1}`)
	expectReply(t, executor,
		`{"method":"read_memory","id":2,"address":256,"size":4}`,
		`{"ok":true,"result":{"address":256,"size":4,"data":[0,1,2,3]},"id":2}`)
	expectReply(t, executor,
		`{"method":"read_memory","id":3,"address":256,"size":0}`,
		`{"ok":true,"result":{"value":0},"id":3}`)
	expectReply(t, executor,
		`{"method":"read_memory","id":4}`,
		`{"ok":false,"error":"invalid address","id":4}`)

	reply, err := protocol.ParseReply(executor.Execute(&bridge.Command{
		Kind: bridge.ReadMemory, ID: 5, Address: 0x100, Size: 1000,
	}))
	if err != nil || !reply.OK {
		t.Fatalf("large read: %+v, %v", reply, err)
	}
	var block struct {
		Size int               `json:"size"`
		Data protocol.ByteList `json:"data"`
	}
	if err := json.Unmarshal(reply.Result, &block); err != nil {
		t.Fatalf("decoding block: %v", err)
	}
	if block.Size != MaxReadBytes || len(block.Data) != MaxReadBytes {
		t.Errorf("size %d with %d bytes, want %d", block.Size, len(block.Data), MaxReadBytes)
	}
}

func TestReadMemoryCheckOrder(t *testing.T) {
	t.Parallel()
	executor, emu, _ := newTestExecutor(t)
	load(t, executor)
	emu.noDebugger = true

	// Address validation comes before the debugger check.
	expectReply(t, executor,
		`{"method":"read_memory","id":1,"address":-5}`,
		`{"ok":false,"error":"invalid address","id":1}`)
	expectReply(t, executor,
		`{"method":"read_memory","id":2,"address":5}`,
		`{"ok":false,"error":"debugger not available","id":2}`)
}

func TestWriteMemory(t *testing.T) {
	t.Parallel()
	executor, emu, _ := newTestExecutor(t)
	load(t, executor)

	expectReply(t, executor,
		`{"method":"write_memory","id":3,"address":10,"value":300}`,
		`{"ok":false,"error":"value must be 0-255","id":3}`)
	expectReply(t, executor,
		`{"method":"write_memory","id":4,"address":10,"value":-1}`,
		`{"ok":false,"error":"value must be 0-255","id":4}`)
	expectReply(t, executor,
		`{"method":"write_memory","id":5,"value":1}`,
		`{"ok":false,"error":"invalid address","id":5}`)
	if len(emu.memory) != 0 {
		t.Fatalf("rejected writes mutated memory: %v", emu.memory)
	}

	expectReply(t, executor,
		`{"method":"write_memory","id":6,"address":10,"value":255}`,
		`{"ok":true,"result":{"address":10,"value":255},"id":6}`)
	expectReply(t, executor,
		`{"method":"read_memory","id":7,"address":10}`,
		`{"ok":true,"result":{"value":255},"id":7}`)

	emu.noDebugger = true
	expectReply(t, executor,
		`{"method":"write_memory","id":8,"address":10,"value":999}`,
		`{"ok":false,"error":"value must be 0-255","id":8}`)
	expectReply(t, executor,
		`{"method":"write_memory","id":9,"address":10,"value":1}`,
		`{"ok":false,"error":"debugger not available","id":9}`)
}

func TestSetInput(t *testing.T) {
	t.Parallel()
	executor, emu, _ := newTestExecutor(t)
	load(t, executor)

	expectReply(t, executor,
		`{"method":"set_input","id":1,"port":1,"buttons":511}`,
		`{"ok":true,"result":{"port":1,"buttons":511},"id":1}`)
	if state := emu.devices[1].state; len(state) != 1 || state[0] != 0xFF {
		t.Errorf("device state = %v, want [255]", state)
	}

	expectReply(t, executor,
		`{"method":"set_input","id":2,"port":3}`,
		`{"ok":false,"error":"no controller on port 3","id":2}`)

	emu.noManager = true
	expectReply(t, executor,
		`{"method":"set_input","id":3}`,
		`{"ok":false,"error":"no control manager","id":3}`)

	emu.noConsole = true
	expectReply(t, executor,
		`{"method":"set_input","id":4}`,
		`{"ok":false,"error":"no active console","id":4}`)
}

func TestGetStateLoaded(t *testing.T) {
	t.Parallel()
	executor, emu, _ := newTestExecutor(t)
	load(t, executor)
	run(t, executor, `{"method":"step_frame","count":4}`)

	expectReply(t, executor,
		`{"method":"get_state","id":8}`,
		`{"ok":true,"result":{"rom_loaded":true,"console_type":2,"mode":"external_controlled","frame_count":4,"pc":12},"id":8}`)

	emu.noDebugger = true
	expectReply(t, executor,
		`{"method":"get_state","id":9}`,
		`{"ok":true,"result":{"rom_loaded":true,"console_type":2,"mode":"external_controlled","frame_count":4},"id":9}`)
}

func TestHandleStopped(t *testing.T) {
	t.Parallel()
	executor, _, _ := newTestExecutor(t)

	executor.HandleStopped()
	if executor.Stats().Snapshot().Stops != 0 {
		t.Error("stop counted while unloaded")
	}

	load(t, executor)
	executor.HandleStopped()
	if state := executor.State(); state != Unloaded() {
		t.Errorf("state = %+v, want unloaded", state)
	}
	if executor.Stats().Snapshot().Stops != 1 {
		t.Error("stop not counted")
	}
	expectReply(t, executor,
		`{"method":"step_frame","id":2}`,
		`{"ok":false,"error":"no ROM loaded","id":2}`)
}

func TestUnknownKind(t *testing.T) {
	t.Parallel()
	executor, _, _ := newTestExecutor(t)

	reply := executor.Execute(&bridge.Command{Kind: bridge.Kind(42), ID: 7})
	if string(reply) != `{"ok":false,"error":"unknown command type","id":7}`+"\n" {
		t.Errorf("reply = %q", reply)
	}
}

func TestDrainPublishesInOrder(t *testing.T) {
	t.Parallel()
	executor, emu, queue := newTestExecutor(t)

	commands := []*bridge.Command{
		{Kind: bridge.LoadProgram, ID: 1, Path: "game.nes"},
		{Kind: bridge.WriteMemory, ID: 2, Address: 4, Value: 9},
		{Kind: bridge.ReadMemory, ID: 3, Address: 4, Size: 1},
		{Kind: bridge.GetStatus, ID: 4},
	}
	for _, cmd := range commands {
		queue.Enqueue(cmd)
	}

	if executed := executor.Drain(); executed != len(commands) {
		t.Fatalf("Drain() = %d, want %d", executed, len(commands))
	}
	if queue.Len() != 0 {
		t.Errorf("queue still holds %d commands", queue.Len())
	}
	if emu.memory[4] != 9 {
		t.Error("write did not run before read")
	}

	clk := clock.Fake(time.Unix(0, 0))
	for _, cmd := range commands {
		result, err := cmd.Await(context.Background(), clk, time.Second)
		if err != nil {
			t.Fatalf("Await(%d): %v", cmd.ID, err)
		}
		reply, err := protocol.ParseReply(result)
		if err != nil || !reply.OK || reply.ID != cmd.ID {
			t.Errorf("reply for %d = %+v, %v", cmd.ID, reply, err)
		}
	}
	if string(mustResult(t, commands[2], clk)) != `{"ok":true,"result":{"value":9},"id":3}`+"\n" {
		t.Errorf("read reply = %q", mustResult(t, commands[2], clk))
	}

	if executor.Drain() != 0 {
		t.Error("second drain found commands")
	}

	snapshot := executor.Stats().Snapshot()
	if snapshot.Drains != 1 || snapshot.Executed["load_rom"] != 1 || snapshot.Executed["get_state"] != 1 {
		t.Errorf("stats = %+v", snapshot)
	}
}

func TestDrainCountsLateResults(t *testing.T) {
	t.Parallel()
	executor, _, queue := newTestExecutor(t)
	clk := clock.Fake(time.Unix(0, 0))

	cmd := &bridge.Command{Kind: bridge.GetStatus, ID: 1}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := queue.Call(ctx, clk, time.Second, cmd); !errors.Is(err, context.Canceled) {
		t.Fatalf("Call error = %v, want context.Canceled", err)
	}

	executor.Drain()
	if late := executor.Stats().Snapshot().LateResults; late != 1 {
		t.Errorf("LateResults = %d, want 1", late)
	}
	if !cmd.Published() {
		t.Error("late result was not stored")
	}
}

func TestFailedCount(t *testing.T) {
	t.Parallel()
	executor, _, _ := newTestExecutor(t)

	frames := []struct {
		frame  string
		failed bool
	}{
		{`{"method":"step_frame"}`, true},
		{`{"method":"get_state"}`, false},
		{`{"method":"load_rom","path":"missing.nes"}`, true},
		{`{"method":"load_rom","path":"game.nes"}`, false},
		{`{"method":"write_memory","address":1,"value":256}`, true},
		{`{"method":"read_memory","address":-1}`, true},
		{`{"method":"set_input","port":3}`, true},
		{`{"method":"step_frame","count":2}`, false},
	}
	var want uint64
	for _, test := range frames {
		reply, err := protocol.ParseReply([]byte(run(t, executor, test.frame)))
		if err != nil {
			t.Fatalf("ParseReply: %v", err)
		}
		if reply.OK == test.failed {
			t.Errorf("%s: ok = %v", test.frame, reply.OK)
		}
		if test.failed {
			want++
		}
	}

	unknown := executor.Execute(&bridge.Command{Kind: bridge.Kind(99), ID: 5})
	if string(unknown) != `{"ok":false,"error":"unknown command type","id":5}`+"\n" {
		t.Errorf("unknown kind reply = %s", unknown)
	}
	want++

	snapshot := executor.Stats().Snapshot()
	if snapshot.Failed != want {
		t.Errorf("Failed = %d, want %d", snapshot.Failed, want)
	}
	if snapshot.Executed["step_frame"] != 2 || snapshot.Executed["load_rom"] != 2 {
		t.Errorf("Executed = %v", snapshot.Executed)
	}
}

func mustResult(t *testing.T, cmd *bridge.Command, clk clock.Clock) []byte {
	t.Helper()
	result, err := cmd.Await(context.Background(), clk, time.Second)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	return result
}

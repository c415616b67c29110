// Package engine 帧编解码测试
package engine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiremq/go-wiremq/pkg/types"
)

func TestFrameEncoding(t *testing.T) {
	t.Run("短帧", func(t *testing.T) {
		buf := AppendFrame(nil, 0, []byte("hello"))
		assert.Equal(t, []byte{0x00, 5, 'h', 'e', 'l', 'l', 'o'}, buf)
	})

	t.Run("空帧", func(t *testing.T) {
		buf := AppendFrame(nil, FlagMore, nil)
		assert.Equal(t, []byte{FlagMore, 0}, buf)
	})

	t.Run("长帧自动置位", func(t *testing.T) {
		payload := bytes.Repeat([]byte{'x'}, 300)
		buf := AppendFrame(nil, 0, payload)
		assert.Equal(t, FlagLong, buf[0])
		assert.Len(t, buf, 1+8+300)
	})
}

func TestDecoderMessages(t *testing.T) {
	t.Run("单帧消息", func(t *testing.T) {
		d := NewDecoder(0)
		wire := AppendMessage(nil, types.NewMessageString("weather/oslo"))

		items, err := d.Feed(wire)
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.NotNil(t, items[0].Msg)
		assert.Equal(t, "weather/oslo", string(items[0].Msg.Bytes()))
	})

	t.Run("多帧消息逐帧保留", func(t *testing.T) {
		d := NewDecoder(0)
		m := types.NewMessageFrames([]byte("id"), nil, []byte("payload"))
		items, err := d.Feed(AppendMessage(nil, m))
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Len(t, items[0].Msg.Frames, 3)
		assert.Equal(t, "id", string(items[0].Msg.Frames[0]))
		assert.Empty(t, items[0].Msg.Frames[1])
		assert.Equal(t, "payload", string(items[0].Msg.Frames[2]))
	})

	t.Run("逐字节喂入", func(t *testing.T) {
		d := NewDecoder(0)
		m := types.NewMessageFrames([]byte("first"), bytes.Repeat([]byte{'y'}, 500))
		wire := AppendMessage(nil, m)

		var got []*types.Message
		for _, b := range wire {
			items, err := d.Feed([]byte{b})
			require.NoError(t, err)
			for _, it := range items {
				got = append(got, it.Msg)
			}
		}
		require.Len(t, got, 1)
		require.Len(t, got[0].Frames, 2)
		assert.Equal(t, "first", string(got[0].Frames[0]))
		assert.Len(t, got[0].Frames[1], 500)
		assert.False(t, d.Pending())
	})

	t.Run("一次喂入多条消息", func(t *testing.T) {
		d := NewDecoder(0)
		wire := AppendMessage(nil, types.NewMessageString("a"))
		wire = AppendMessage(wire, types.NewMessageString("b"))

		items, err := d.Feed(wire)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "a", string(items[0].Msg.Bytes()))
		assert.Equal(t, "b", string(items[1].Msg.Bytes()))
	})
}

func TestDecoderCommands(t *testing.T) {
	t.Run("命令与消息交错", func(t *testing.T) {
		d := NewDecoder(0)
		wire := AppendCommand(nil, &Command{Name: CmdError, Body: []byte("oops")})
		wire = AppendMessage(wire, types.NewMessageString("data"))

		items, err := d.Feed(wire)
		require.NoError(t, err)
		require.Len(t, items, 2)
		require.NotNil(t, items[0].Cmd)
		assert.Equal(t, CmdError, items[0].Cmd.Name)
		assert.Equal(t, "oops", string(items[0].Cmd.Body))
		require.NotNil(t, items[1].Msg)
	})

	t.Run("命令帧带 MORE 位非法", func(t *testing.T) {
		d := NewDecoder(0)
		payload := []byte{byte(len(CmdReady))}
		payload = append(payload, CmdReady...)
		wire := AppendFrame(nil, FlagCommand|FlagMore, payload)

		_, err := d.Feed(wire)
		assert.ErrorIs(t, err, ErrBadFrame)
	})
}

func TestDecoderErrors(t *testing.T) {
	t.Run("未知标志位", func(t *testing.T) {
		d := NewDecoder(0)
		_, err := d.Feed([]byte{0x80, 0})
		assert.ErrorIs(t, err, ErrBadFrame)
	})

	t.Run("超长帧", func(t *testing.T) {
		d := NewDecoder(16)
		wire := AppendFrame(nil, 0, bytes.Repeat([]byte{'z'}, 17))
		_, err := d.Feed(wire)
		assert.ErrorIs(t, err, ErrFrameTooLarge)
	})
}

func TestReadyBody(t *testing.T) {
	t.Run("带标识往返", func(t *testing.T) {
		in := Properties{Pattern: types.PatternRouter, Identity: types.Identity("node-7")}
		out, err := ParseReadyBody(EncodeReadyBody(in))
		require.NoError(t, err)
		assert.Equal(t, types.PatternRouter, out.Pattern)
		assert.Equal(t, "node-7", out.Identity.String())
	})

	t.Run("无标识往返", func(t *testing.T) {
		out, err := ParseReadyBody(EncodeReadyBody(Properties{Pattern: types.PatternSub}))
		require.NoError(t, err)
		assert.Equal(t, types.PatternSub, out.Pattern)
		assert.True(t, out.Identity.Empty())
	})

	t.Run("缺少 Pattern 属性", func(t *testing.T) {
		_, err := ParseReadyBody(nil)
		assert.ErrorIs(t, err, ErrBadCommand)
	})

	t.Run("未知属性被忽略", func(t *testing.T) {
		body := EncodeReadyBody(Properties{Pattern: types.PatternPub})
		body = appendProperty(body, "Future", []byte("value"))
		out, err := ParseReadyBody(body)
		require.NoError(t, err)
		assert.Equal(t, types.PatternPub, out.Pattern)
	})
}

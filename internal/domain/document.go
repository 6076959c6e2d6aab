package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrIndexOutOfRange = errors.New("индекс вне диапазона")

// Document хранит все расписания: chat id (строкой) -> упорядоченный список записей.
// Порядок чатов и порядок записей сохраняются при сериализации.
type Document struct {
	order []string
	chats map[string][]Entry
}

func NewDocument() *Document {
	return &Document{chats: make(map[string][]Entry)}
}

// Chats возвращает ключи в порядке документа.
func (d *Document) Chats() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Entries возвращает копию списка чата.
func (d *Document) Entries(chat string) []Entry {
	src := d.chats[chat]
	out := make([]Entry, len(src))
	copy(out, src)
	return out
}

// Len возвращает общее число записей по всем чатам.
func (d *Document) Len() int {
	n := 0
	for _, es := range d.chats {
		n += len(es)
	}
	return n
}

func (d *Document) Append(chat string, e Entry) {
	if d.chats == nil {
		d.chats = make(map[string][]Entry)
	}
	if _, ok := d.chats[chat]; !ok {
		d.order = append(d.order, chat)
	}
	d.chats[chat] = append(d.chats[chat], e)
}

// RemoveAt удаляет запись по индексу; пустой чат исчезает из документа.
func (d *Document) RemoveAt(chat string, i int) (Entry, error) {
	es := d.chats[chat]
	if i < 0 || i >= len(es) {
		return Entry{}, fmt.Errorf("%w: %d (записей %d)", ErrIndexOutOfRange, i, len(es))
	}
	removed := es[i]
	rest := make([]Entry, 0, len(es)-1)
	rest = append(rest, es[:i]...)
	rest = append(rest, es[i+1:]...)
	if len(rest) == 0 {
		d.drop(chat)
	} else {
		d.chats[chat] = rest
	}
	return removed, nil
}

// Clear удаляет все записи чата и возвращает их.
func (d *Document) Clear(chat string) []Entry {
	removed := d.chats[chat]
	d.drop(chat)
	return removed
}

func (d *Document) drop(chat string) {
	if _, ok := d.chats[chat]; !ok {
		return
	}
	delete(d.chats, chat)
	for i, k := range d.order {
		if k == chat {
			d.order = append(d.order[:i:i], d.order[i+1:]...)
			break
		}
	}
}

func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, chat := range d.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(chat)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		es := d.chats[chat]
		if es == nil {
			es = []Entry{}
		}
		val, err := json.Marshal(es)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	d.order = nil
	d.chats = make(map[string][]Entry)
	if tok == nil {
		// null
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("ожидался объект, получено %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		chat, ok := tok.(string)
		if !ok {
			return fmt.Errorf("ожидался ключ-строка, получено %v", tok)
		}
		var es []Entry
		if err := dec.Decode(&es); err != nil {
			return fmt.Errorf("чат %s: %w", chat, err)
		}
		if _, seen := d.chats[chat]; !seen {
			d.order = append(d.order, chat)
		}
		if es == nil {
			es = []Entry{}
		}
		d.chats[chat] = es
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// Package canvas は、1回の編集セッション中に置かれた全キャンバスアイテムを保持する
// インメモリストアを提供するのだ。ストアが全アイテムの唯一の所有者であり、
// 変更は必ずIDをキーにした更新操作を通して行われるのだ。
package canvas

import (
	"fmt"
	"sync"

	"github.com/shouni/go-manga-factory/pkg/domain"
)

// Store はテキスト・吹き出し・パネルの3種のアイテムを保持するストアなのだ。
// JSのイベントループの代わりに、Goではミューテックスが全変更を直列化するのだ。
// 非同期の生成完了コールバックは削除と競合し得るため、存在しないIDへの更新は
// 例外を投げずに黙って無視するのが仕様なのだ。
type Store struct {
	mu         sync.Mutex
	seq        int
	order      []string // 挿入順（描画順）を保持する
	texts      map[string]domain.TextItem
	bubbles    map[string]domain.BubbleItem
	panels     map[string]domain.PanelItem
	selectedID string
}

// NewStore は空のストアを生成します。
func NewStore() *Store {
	return &Store{
		texts:   make(map[string]domain.TextItem),
		bubbles: make(map[string]domain.BubbleItem),
		panels:  make(map[string]domain.PanelItem),
	}
}

// nextID はセッション内で重複しない単調増加のIDを払い出すのだ。
// 呼び出し側はロックを保持していること。
func (s *Store) nextID(kind domain.ItemKind) string {
	s.seq++
	return fmt.Sprintf("%s-%d", kind, s.seq)
}

// AddText は既定値のテキストアイテムを追加し、選択状態にして返します。
func (s *Store) AddText() domain.TextItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := domain.TextItem{
		ItemBase:   domain.ItemBase{ID: s.nextID(domain.KindText), X: 100, Y: 100, ScaleX: 1, ScaleY: 1},
		Text:       "Double-click to edit",
		FontSize:   24,
		FontFamily: "Comic Neue",
		Fill:       "#000000",
		Width:      200,
	}
	s.texts[item.ID] = item
	s.order = append(s.order, item.ID)
	s.selectedID = item.ID
	return item
}

// AddBubble は指定形状の吹き出しアイテムを追加し、選択状態にして返します。
func (s *Store) AddBubble(shape domain.BubbleShape) domain.BubbleItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := domain.BubbleItem{
		ItemBase: domain.ItemBase{ID: s.nextID(domain.KindBubble), X: 200, Y: 200, ScaleX: 1, ScaleY: 1},
		Shape:    shape,
		Width:    shape.Width,
		Height:   shape.Height,
	}
	s.bubbles[item.ID] = item
	s.order = append(s.order, item.ID)
	s.selectedID = item.ID
	return item
}

// AddPanel は指定アスペクト比のパネルを追加し、選択状態にして返すのだ。
// 生成解像度は比率パレットの値をそのまま写すので、任意の解像度は入り込まないのだ。
func (s *Store) AddPanel(ratio domain.PanelRatio) domain.PanelItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := domain.PanelItem{
		ItemBase:  domain.ItemBase{ID: s.nextID(domain.KindPanel), X: 150, Y: 150, ScaleX: 1, ScaleY: 1},
		Width:     ratio.DisplayWidth,
		Height:    ratio.DisplayHeight,
		GenWidth:  ratio.GenWidth,
		GenHeight: ratio.GenHeight,
	}
	s.panels[item.ID] = item
	s.order = append(s.order, item.ID)
	s.selectedID = item.ID
	return item
}

// UpdateText はIDで指定したテキストのコピーに部分更新を適用して差し替えます。
// 存在しないIDの場合は何もしません。
func (s *Store) UpdateText(id string, update func(*domain.TextItem)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.texts[id]
	if !ok {
		return
	}
	update(&item)
	item.ID = id // IDの差し替えは許可しない
	s.texts[id] = item
}

// UpdateBubble はIDで指定した吹き出しのコピーに部分更新を適用して差し替えます。
// 存在しないIDの場合は何もしません。
func (s *Store) UpdateBubble(id string, update func(*domain.BubbleItem)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.bubbles[id]
	if !ok {
		return
	}
	update(&item)
	item.ID = id
	s.bubbles[id] = item
}

// UpdatePanel はIDで指定したパネルのコピーに部分更新を適用して差し替えるのだ。
// 存在しないIDの場合は何もしないのだ。生成中に削除されたパネルの完了コールバックは
// この性質によって無害な no-op になるのだよ。
func (s *Store) UpdatePanel(id string, update func(*domain.PanelItem)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.panels[id]
	if !ok {
		return
	}
	update(&item)
	item.ID = id
	s.panels[id] = item
}

// Select は選択中IDを切り替えます。存在しないIDなら何もしません。
func (s *Store) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.contains(id) {
		s.selectedID = id
	}
}

// ClearSelection は選択を解除します（空白部分をクリックした時の挙動）。
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = ""
}

// SelectedID は選択中のアイテムIDを返します。未選択なら空文字列です。
func (s *Store) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

// DeleteSelected は選択中のアイテムを種別を問わず削除し、選択を解除します。
func (s *Store) DeleteSelected() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selectedID == "" {
		return
	}
	s.removeLocked(s.selectedID)
	s.selectedID = ""
}

// Remove はIDで指定したアイテムを削除します。存在しないIDなら何もしません。
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(id)
	if s.selectedID == id {
		s.selectedID = ""
	}
}

func (s *Store) removeLocked(id string) {
	if !s.contains(id) {
		return
	}
	delete(s.texts, id)
	delete(s.bubbles, id)
	delete(s.panels, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store) contains(id string) bool {
	if _, ok := s.texts[id]; ok {
		return true
	}
	if _, ok := s.bubbles[id]; ok {
		return true
	}
	_, ok := s.panels[id]
	return ok
}

// PanelByID はパネルの最新状態のコピーを返すのだ。
// 非同期の生成処理は、開始前に捕まえたスナップショットではなく、
// 必ずこの関数で「使う瞬間の状態」を読み直すのだ。
func (s *Store) PanelByID(id string) (domain.PanelItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.panels[id]
	return item, ok
}

// Texts は挿入順のテキストアイテム一覧のコピーを返します。
func (s *Store) Texts() []domain.TextItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.TextItem, 0, len(s.texts))
	for _, id := range s.order {
		if item, ok := s.texts[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

// Bubbles は挿入順の吹き出し一覧のコピーを返します。
func (s *Store) Bubbles() []domain.BubbleItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.BubbleItem, 0, len(s.bubbles))
	for _, id := range s.order {
		if item, ok := s.bubbles[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

// Panels は挿入順のパネル一覧のコピーを返します。
func (s *Store) Panels() []domain.PanelItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.PanelItem, 0, len(s.panels))
	for _, id := range s.order {
		if item, ok := s.panels[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

// Len は全種別のアイテム総数を返します。
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

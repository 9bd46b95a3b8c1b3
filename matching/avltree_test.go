package matching

import "testing"

func TestAVLTreeAscending(t *testing.T) {
	tree := NewAVLTree(false)
	prices := []uint64{50, 20, 80, 10, 30, 70, 90}
	for _, p := range prices {
		tree.Insert(NewLevelNode(LevelTypeAsk, p))
	}

	if tree.Size() != len(prices) {
		t.Fatalf("expected size %d, got %d", len(prices), tree.Size())
	}
	if got := tree.First().Price; got != 10 {
		t.Errorf("expected first price 10, got %d", got)
	}
	if got := tree.Last().Price; got != 90 {
		t.Errorf("expected last price 90, got %d", got)
	}

	var seen []uint64
	tree.ForEach(func(n *LevelNode) bool {
		seen = append(seen, n.Price)
		return true
	})
	for i := 1; i < len(seen); i++ {
		if seen[i-1] > seen[i] {
			t.Fatalf("ascending order violated at %d: %v", i, seen)
		}
	}
}

func TestAVLTreeDescending(t *testing.T) {
	tree := NewAVLTree(true)
	prices := []uint64{50, 20, 80, 10, 30, 70, 90}
	for _, p := range prices {
		tree.Insert(NewLevelNode(LevelTypeBid, p))
	}

	if got := tree.First().Price; got != 90 {
		t.Errorf("expected first price 90, got %d", got)
	}
	if got := tree.Last().Price; got != 10 {
		t.Errorf("expected last price 10, got %d", got)
	}

	var seen []uint64
	tree.ForEach(func(n *LevelNode) bool {
		seen = append(seen, n.Price)
		return true
	})
	for i := 1; i < len(seen); i++ {
		if seen[i-1] < seen[i] {
			t.Fatalf("descending order violated at %d: %v", i, seen)
		}
	}
}

func TestAVLTreeRemove(t *testing.T) {
	tree := NewAVLTree(false)
	nodes := make(map[uint64]*LevelNode)
	for _, p := range []uint64{50, 20, 80, 10, 30, 70, 90, 40, 60} {
		n := NewLevelNode(LevelTypeAsk, p)
		nodes[p] = n
		tree.Insert(n)
	}

	tree.Remove(nodes[50])
	if tree.Find(50) != nil {
		t.Error("expected 50 to be removed")
	}
	if tree.Size() != 8 {
		t.Errorf("expected size 8, got %d", tree.Size())
	}

	var seen []uint64
	tree.ForEach(func(n *LevelNode) bool {
		seen = append(seen, n.Price)
		return true
	})
	for i := 1; i < len(seen); i++ {
		if seen[i-1] > seen[i] {
			t.Fatalf("ascending order violated after remove: %v", seen)
		}
	}
}

func TestOrderListFIFO(t *testing.T) {
	var list OrderList
	a := NewOrderNode(Order{ID: 1})
	b := NewOrderNode(Order{ID: 2})
	c := NewOrderNode(Order{ID: 3})

	list.PushBack(a)
	list.PushBack(b)
	list.PushBack(c)

	if list.Front().ID != 1 {
		t.Fatalf("expected FIFO head id 1, got %d", list.Front().ID)
	}

	list.Remove(b)
	if list.Size != 2 {
		t.Fatalf("expected size 2 after remove, got %d", list.Size)
	}
	if a.Next != c || c.Prev != a {
		t.Fatal("expected a and c to be linked after removing b")
	}

	list.Remove(a)
	if list.Front().ID != 3 {
		t.Fatalf("expected head id 3, got %d", list.Front().ID)
	}

	list.Remove(c)
	if !list.Empty() {
		t.Fatal("expected list to be empty")
	}
}

package utils

import "testing"

func TestRandSeq_长度(t *testing.T) {
	if got := RandSeq(16); len(got) != 16 {
		t.Fatalf("期望长度 16, got=%d", len(got))
	}
}

func TestSnowflake_单调递增(t *testing.T) {
	sf, err := NewSnowflake(3)
	if err != nil {
		t.Fatalf("NewSnowflake err=%v", err)
	}
	prev := sf.NextID()
	for i := 0; i < 1000; i++ {
		next := sf.NextID()
		if next <= prev {
			t.Fatalf("id 应单调递增, prev=%d next=%d", prev, next)
		}
		prev = next
	}
	if _, err := NewSnowflake(-1); err == nil {
		t.Fatalf("非法节点号应报错")
	}
}

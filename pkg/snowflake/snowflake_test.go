package snowflake

import "testing"

func TestNewSnowflake(t *testing.T) {
	if _, err := NewSnowflake(0); err != nil {
		t.Errorf("机器ID 0 应合法: %v", err)
	}
	if _, err := NewSnowflake(maxMachineID); err != nil {
		t.Errorf("机器ID %d 应合法: %v", maxMachineID, err)
	}
	if _, err := NewSnowflake(-1); err == nil {
		t.Error("负数机器ID应返回错误")
	}
	if _, err := NewSnowflake(maxMachineID + 1); err == nil {
		t.Error("超限机器ID应返回错误")
	}
}

func TestGenerateUniqueAndMonotonic(t *testing.T) {
	sf, err := NewSnowflake(1)
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	seen := make(map[int64]bool)
	var prev int64
	for i := 0; i < 10000; i++ {
		id := sf.Generate()
		if seen[id] {
			t.Fatalf("生成了重复ID: %d", id)
		}
		seen[id] = true
		if id <= prev {
			t.Fatalf("ID应单调递增: %d <= %d", id, prev)
		}
		prev = id
	}
}

func TestParseID(t *testing.T) {
	sf, err := NewSnowflake(42)
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	id := sf.Generate()
	_, machineID, _ := sf.ParseID(id)
	if machineID != 42 {
		t.Errorf("解析出的机器ID应为42, 实际 %d", machineID)
	}
}

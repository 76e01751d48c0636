package snowflake

import (
	"fmt"
	"sync"
	"time"
)

// Snowflake 群组/帖子/评论/反应共用的int64 ID生成器
// 64位结构：1位符号位(0) + 41位时间戳 + 10位机器ID + 12位序列号
type Snowflake struct {
	mutex     sync.Mutex
	epoch     int64 // 起始时间戳 (毫秒)
	machineID int64 // 机器ID (0-1023)
	sequence  int64 // 序列号 (0-4095)
	lastTime  int64 // 上次生成ID的时间戳
}

const (
	machineBits  = 10
	sequenceBits = 12

	maxMachineID = (1 << machineBits) - 1  // 1023
	maxSequence  = (1 << sequenceBits) - 1 // 4095

	machineShift   = sequenceBits
	timestampShift = sequenceBits + machineBits

	// 起始时间 (2024-01-01 00:00:00 UTC)
	defaultEpoch = 1704067200000
)

// NewSnowflake 创建Snowflake实例
func NewSnowflake(machineID int64) (*Snowflake, error) {
	if machineID < 0 || machineID > maxMachineID {
		return nil, fmt.Errorf("机器ID必须在0-%d之间", maxMachineID)
	}

	return &Snowflake{
		epoch:     defaultEpoch,
		machineID: machineID,
	}, nil
}

// Generate 生成下一个ID
func (s *Snowflake) Generate() int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now().UnixMilli()

	// 时钟回拨会产生重复ID，直接拒绝
	if now < s.lastTime {
		panic(fmt.Sprintf("时钟回拨，拒绝生成ID。当前时间: %d, 上次时间: %d", now, s.lastTime))
	}

	if now == s.lastTime {
		s.sequence = (s.sequence + 1) & maxSequence
		if s.sequence == 0 {
			// 同一毫秒内序列号用尽，等待下一毫秒
			for now <= s.lastTime {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		s.sequence = 0
	}

	s.lastTime = now

	return ((now - s.epoch) << timestampShift) |
		(s.machineID << machineShift) |
		s.sequence
}

// ParseID 拆解ID的时间戳、机器ID与序列号
func (s *Snowflake) ParseID(id int64) (timestamp int64, machineID int64, sequence int64) {
	timestamp = (id >> timestampShift) + s.epoch
	machineID = (id >> machineShift) & maxMachineID
	sequence = id & maxSequence
	return
}

var globalSnowflake *Snowflake

// InitGlobalSnowflake 初始化全局实例，服务启动时调用一次
func InitGlobalSnowflake(machineID int64) error {
	var err error
	globalSnowflake, err = NewSnowflake(machineID)
	return err
}

// GenerateID 生成全局唯一ID
func GenerateID() int64 {
	if globalSnowflake == nil {
		panic("Snowflake未初始化，请先调用InitGlobalSnowflake")
	}
	return globalSnowflake.Generate()
}

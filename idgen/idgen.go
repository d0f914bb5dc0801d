package idgen

import (
	"hash/fnv"
	"os"

	"github.com/fundwit/go-commons/types"
	"github.com/sony/sonyflake"
)

// NewWorker falls back to a hostname derived machine id when no private address is available.
func NewWorker() *sonyflake.Sonyflake {
	if worker := sonyflake.NewSonyflake(sonyflake.Settings{}); worker != nil {
		return worker
	}
	return sonyflake.NewSonyflake(sonyflake.Settings{MachineID: hostMachineID})
}

func NextID(idWorker *sonyflake.Sonyflake) types.ID {
	id, err := idWorker.NextID()
	if err != nil {
		panic(err)
	}
	return types.ID(id)
}

func hostMachineID() (uint16, error) {
	host, err := os.Hostname()
	if err != nil {
		return uint16(os.Getpid()), nil
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(host))
	return uint16(h.Sum32()), nil
}

package idgen

import (
	"log"
	"os"
	"strconv"
)

// Init 初始化默认节点（多实例部署时每个实例使用不同 nodeID）
func Init(nodeID int64) {
	if s := os.Getenv("SNOWFLAKE_NODE_ID"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v < 0 || v > 1023 {
			log.Fatalf("[IDGen] Invalid SNOWFLAKE_NODE_ID: %v", s)
		}
		nodeID = v
	}
	if err := InitNode("default", nodeID); err != nil {
		log.Fatalf("[IDGen] InitNode failed: %v", err)
	}
	log.Printf("[IDGen] Snowflake node initialized: nodeID=%d", nodeID)
}

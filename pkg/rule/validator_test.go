package rule_test

import (
	"testing"

	"github.com/yeisme/mediavault/pkg/rule"
)

// uploadForm 用于测试 ValidateStruct 与领域别名规则.
type uploadForm struct {
	Filename   string `rule:"required,max=255"`
	SizeBytes  int64  `rule:"gt=0"`
	Visibility string `rule:"visibility"`
}

// TestEngine 测试 Engine 函数返回非 nil 实例.
func TestEngine(t *testing.T) {
	if rule.Engine() == nil {
		t.Error("Engine() returned nil")
	}
}

// TestValidateStruct 测试结构体校验与 visibility 别名.
func TestValidateStruct(t *testing.T) {
	valid := uploadForm{Filename: "a.png", SizeBytes: 10, Visibility: "private"}
	if err := rule.ValidateStruct(valid); err != nil {
		t.Errorf("expected no error for valid form, got %v", err)
	}

	// 缺少文件名
	missing := uploadForm{SizeBytes: 10, Visibility: "public"}
	if err := rule.ValidateStruct(missing); err == nil {
		t.Error("expected error for missing filename, got nil")
	}

	// 非法可见性
	badVis := uploadForm{Filename: "a.png", SizeBytes: 10, Visibility: "internal"}
	if err := rule.ValidateStruct(badVis); err == nil {
		t.Error("expected error for invalid visibility, got nil")
	}

	// 大小必须为正
	badSize := uploadForm{Filename: "a.png", SizeBytes: 0, Visibility: "public"}
	if err := rule.ValidateStruct(badSize); err == nil {
		t.Error("expected error for zero size, got nil")
	}
}

// TestValidateVar 测试单变量校验.
func TestValidateVar(t *testing.T) {
	if err := rule.ValidateVar("active", "file_status"); err != nil {
		t.Errorf("expected no error for valid status, got %v", err)
	}

	if err := rule.ValidateVar("missing", "file_status"); err == nil {
		t.Error("expected error for invalid status, got nil")
	}

	if err := rule.ValidateVar("thumb", "variant_kind"); err != nil {
		t.Errorf("expected no error for valid kind, got %v", err)
	}
}

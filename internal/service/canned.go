package service

import "sort"

// Canned text messages the operator can send with one call.
var cannedTexts = map[string]string{
	"verification":    "تم التحقق من رمز التفعيل بنجاح! مرحباً بك في أمواج",
	"automated-reply": "شكراً لك على رسالتك! هذه رسالة تلقائية من أمواج - DreamToApp",
	"test":            "Test message from DreamToApp - هذا اختبار",
	"simple-text":     "Hello! This is a test message from DreamToApp. مرحباً! هذه رسالة اختبار من DreamToApp",
}

func CannedText(name string) (string, bool) {
	body, ok := cannedTexts[name]
	return body, ok
}

func CannedNames() []string {
	names := make([]string, 0, len(cannedTexts))
	for name := range cannedTexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

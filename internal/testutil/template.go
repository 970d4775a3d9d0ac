package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Identity values baked into the fixture template project.
const (
	TemplatePackageName = "base_template"
	TemplateDisplayName = "Base Template"
	TemplateVersion     = "1.0.0+1"
	TemplateIdentifier  = "com.example.basetemplate"
)

// TemplateEntryPoint is the fixture's MainActivity location.
const TemplateEntryPoint = "android/app/src/main/kotlin/com/example/basetemplate/MainActivity.kt"

// TemplateFiles is the fixture project, keyed by slash-separated relative path.
var TemplateFiles = map[string]string{
	"pubspec.yaml": `name: base_template
description: A generated application.
publish_to: 'none'
version: 1.0.0+1

environment:
  sdk: '>=3.0.0 <4.0.0'

dependencies:
  flutter:
    sdk: flutter

flutter:
  uses-material-design: true
  assets:
    - assets/
`,
	"lib/main.dart": `import 'package:flutter/material.dart';
import 'screens/home_screen.dart';

void main() => runApp(const BaseApp());

class BaseApp extends StatelessWidget {
  const BaseApp({super.key});

  @override
  Widget build(BuildContext context) {
    return MaterialApp(
      title: 'Base Template',
      home: const HomeScreen(),
    );
  }
}
`,
	"lib/controllers/app_controller.dart": `class AppController {
  List<Map<String, dynamic>> _pages = [];
  Map<String, dynamic> _appSettings = {};

  List<Map<String, dynamic>> get pages => _pages;
  Map<String, dynamic> get settings => _appSettings;
}
`,
	"lib/screens/home_screen.dart": `import 'package:flutter/material.dart';

class HomeScreen extends StatelessWidget {
  const HomeScreen({super.key});

  @override
  Widget build(BuildContext context) => const Scaffold();
}
`,
	"android/app/build.gradle": `plugins {
    id "com.android.application"
    id "kotlin-android"
    id "dev.flutter.flutter-gradle-plugin"
}

android {
    namespace "com.example.basetemplate"
    compileSdkVersion 34

    defaultConfig {
        applicationId "com.example.basetemplate"
        minSdkVersion 21
        targetSdkVersion 34
    }
}
`,
	"android/app/src/main/AndroidManifest.xml": `<manifest xmlns:android="http://schemas.android.com/apk/res/android"
    package="com.example.basetemplate">
    <application
        android:label="Base Template"
        android:icon="@mipmap/ic_launcher">
        <activity
            android:name=".MainActivity"
            android:exported="true">
        </activity>
    </application>
</manifest>
`,
	TemplateEntryPoint: `package com.example.basetemplate

import io.flutter.embedding.android.FlutterActivity

class MainActivity: FlutterActivity()
`,
	"ios/Runner/Info.plist": `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
	<key>CFBundleDisplayName</key>
	<string>Base Template</string>
</dict>
</plist>
`,
	"assets/.keep": "",
}

// TemplateJunk are build-local files a real checkout accumulates; none of
// them may reach a workspace.
var TemplateJunk = map[string]string{
	".dart_tool/package_config.json":              "{}",
	"build/app/outputs/flutter-apk/stale.apk":     "stale",
	"android/.gradle/8.0/checksums.bin":           "bin",
	"android/local.properties":                    "sdk.dir=/opt/android",
	"pubspec.lock":                                "packages: {}",
	".flutter-plugins":                            "",
	".flutter-plugins-dependencies":               "{}",
	".idea/workspace.xml":                         "<project/>",
	".pub-cache/hosted/pub.dev/http-1.0.0/x.dart": "",
	"ios/Podfile.lock":                            "PODS:",
}

// WriteTemplate creates the fixture template project (plus its build-local
// junk and an executable gradlew) under a new temp dir and returns the dir.
func WriteTemplate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range TemplateFiles {
		WriteFile(t, dir, rel, content)
	}
	for rel, content := range TemplateJunk {
		WriteFile(t, dir, rel, content)
	}
	WriteScript(t, dir, "android/gradlew", "exit 0")
	return dir
}

// WriteFile writes content to dir/rel, creating parent directories.
func WriteFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", rel, err)
	}
	return path
}

// WriteScript writes an executable /bin/sh script to dir/rel.
func WriteScript(t *testing.T, dir, rel, body string) string {
	t.Helper()
	path := WriteFile(t, dir, rel, "#!/bin/sh\n"+body+"\n")
	if err := os.Chmod(path, 0o755); err != nil {
		t.Fatalf("Failed to chmod %s: %v", rel, err)
	}
	return path
}

// ReadFile returns the content of dir/rel, failing the test if it is unreadable.
func ReadFile(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("Failed to read %s: %v", rel, err)
	}
	return string(data)
}
